package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForExperience_KnownValues(t *testing.T) {
	cases := []struct {
		xp   int64
		want int64
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{39, 1},
		{40, 2},
		{89, 2},
		{90, 3},
		{1000, 10},
		{1210, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForExperience(tc.xp), "xp=%d", tc.xp)
	}
}

func TestLevelForExperience_FloorInverseProperty(t *testing.T) {
	for xp := int64(0); xp < 50_000; xp++ {
		level := LevelForExperience(xp)
		assert.LessOrEqual(t, ExperienceForLevel(level), xp, "xp=%d", xp)
		assert.Greater(t, ExperienceForLevel(level+1), xp, "xp=%d", xp)
	}
}

func TestLevelForExperience_RoundTripsLevelBoundaries(t *testing.T) {
	for level := int64(0); level <= 2_000; level++ {
		assert.Equal(t, level, LevelForExperience(ExperienceForLevel(level)), "level=%d", level)
	}
}

func TestExperienceForLevel_NonDecreasing(t *testing.T) {
	prev := int64(-1)
	for level := int64(0); level <= 1_000; level++ {
		xp := ExperienceForLevel(level)
		assert.Greater(t, xp, prev)
		prev = xp
	}
}

func TestProjectLevel(t *testing.T) {
	info := ProjectLevel(95)
	assert.Equal(t, int64(3), info.Level)
	assert.Equal(t, int64(5), info.CurrentXP)   // 95 - 90
	assert.Equal(t, int64(70), info.RequiredXP) // 160 - 90

	zero := ProjectLevel(0)
	assert.Equal(t, int64(0), zero.Level)
	assert.Equal(t, int64(0), zero.CurrentXP)
	assert.Equal(t, int64(10), zero.RequiredXP)

	negative := ProjectLevel(-5)
	assert.Equal(t, int64(0), negative.Level)
	assert.Equal(t, int64(0), negative.CurrentXP)
}
