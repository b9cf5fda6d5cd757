package domain

import "errors"

var (
	ErrAlreadyConnected   = errors.New("already tracking streamer")
	ErrConnectionFailed   = errors.New("live connection failed")
	ErrNotTracking        = errors.New("not tracking streamer")
	ErrGiveawayRunning    = errors.New("giveaway already running")
	ErrGiveawayNotFound   = errors.New("giveaway not found")
	ErrArchiveUnavailable = errors.New("result archive unavailable")
	ErrProfileNotFound    = errors.New("profile not found")
)
