package domain

import "math"

// LevelInfo is the derived level projection for an experience total.
type LevelInfo struct {
	Level      int64 `json:"level"`
	CurrentXP  int64 `json:"current_xp"`
	RequiredXP int64 `json:"required_xp"`
}

// LevelForExperience computes floor(sqrt(10)/10 * sqrt(xp)), i.e. the
// largest L with 10*L*L <= xp. The float result is corrected so the
// floor-inverse property holds exactly at level boundaries.
func LevelForExperience(xp int64) int64 {
	if xp <= 0 {
		return 0
	}

	level := int64(math.Sqrt(float64(xp) / 10))
	for ExperienceForLevel(level+1) <= xp {
		level++
	}
	for level > 0 && ExperienceForLevel(level) > xp {
		level--
	}
	return level
}

// ExperienceForLevel is the inverse: the total experience at which a
// level begins.
func ExperienceForLevel(level int64) int64 {
	if level < 0 {
		return 0
	}
	return 10 * level * level
}

// ProjectLevel derives the level, progress into it, and the experience
// span of the level for an experience total.
func ProjectLevel(xp int64) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := LevelForExperience(xp)
	base := ExperienceForLevel(level)
	return LevelInfo{
		Level:      level,
		CurrentXP:  xp - base,
		RequiredXP: ExperienceForLevel(level+1) - base,
	}
}
