package models

import "math"

// MaxLevel is the last level with a defined table entry. The XP curve itself
// is open-ended; anything above MaxLevel falls back to the level-0 entry for
// display purposes.
const MaxLevel = 30

const baseXPPerLevel = 100

// LevelInfo is one row of the immutable level table.
type LevelInfo struct {
	Level      int    `json:"level"`
	Symbol     string `json:"symbol"`
	Label      string `json:"label"`
	Tagline    string `json:"tagline"`
	XPRequired int64  `json:"xp_required"`
}

// LevelProgress describes how far into the current level a user is.
// Progress is not clamped here; at or beyond MaxLevel it is fixed to 1.
type LevelProgress struct {
	CurrentLevelXP int64   `json:"current_level_xp"`
	NextLevelXP    int64   `json:"next_level_xp"`
	Progress       float64 `json:"progress"`
}

// XpForLevel returns the minimum cumulative XP required to be at level.
// L_n = floor(100 * n^1.7), L_0 = 0. The floor is load-bearing: award
// thresholds depend on these exact integers.
func XpForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(math.Floor(float64(baseXPPerLevel) * math.Pow(float64(level), 1.7)))
}

// LevelForXp returns the largest level whose threshold is <= totalXp.
// Defined for all totalXp >= 0 and not capped at MaxLevel.
func LevelForXp(totalXp int64) int {
	level := 0
	for XpForLevel(level+1) <= totalXp {
		level++
	}
	return level
}

// LevelInfoFor returns the table entry for level, or the level-0 entry when
// level is outside the populated range. Callers holding a computed level
// above MaxLevel get the safe default rather than an error.
func LevelInfoFor(level int) LevelInfo {
	if level < 0 || level > MaxLevel {
		return LevelTable[0]
	}
	return LevelTable[level]
}

// ProgressForXp computes progress within the given level. When the next
// threshold equals the current one (at or beyond MaxLevel) progress is 1.
func ProgressForXp(totalXp int64, level int) LevelProgress {
	current := XpForLevel(level)
	next := current
	if level < MaxLevel {
		next = XpForLevel(level + 1)
	}
	if next == current {
		return LevelProgress{CurrentLevelXP: current, NextLevelXP: next, Progress: 1}
	}
	return LevelProgress{
		CurrentLevelXP: current,
		NextLevelXP:    next,
		Progress:       float64(totalXp-current) / float64(next-current),
	}
}

// LevelTable is process-wide, read-only reference data. XPRequired values are
// filled in at init from XpForLevel so the table can never drift from the
// curve.
var LevelTable = [MaxLevel + 1]LevelInfo{
	{Level: 0, Symbol: "🔭", Label: "Curious Mind", Tagline: "Every discovery starts with a question."},
	{Level: 1, Symbol: "✏️", Label: "Note Taker", Tagline: "You wrote it down. That counts."},
	{Level: 2, Symbol: "📖", Label: "Avid Reader", Tagline: "Abstracts are just the beginning."},
	{Level: 3, Symbol: "🧪", Label: "Lab Assistant", Tagline: "Someone has to label the samples."},
	{Level: 4, Symbol: "🔬", Label: "Observer", Tagline: "You see what others scroll past."},
	{Level: 5, Symbol: "📊", Label: "Data Cruncher", Tagline: "The error bars fear you."},
	{Level: 6, Symbol: "🧫", Label: "Experimenter", Tagline: "Hypotheses were harmed in the making."},
	{Level: 7, Symbol: "📝", Label: "Preprint Hunter", Tagline: "You read it before it was peer reviewed."},
	{Level: 8, Symbol: "🧠", Label: "Deep Thinker", Tagline: "Citation trails are your rabbit holes."},
	{Level: 9, Symbol: "🗂️", Label: "Curator", Tagline: "Your library is a work of art."},
	{Level: 10, Symbol: "🎓", Label: "Graduate", Tagline: "Double digits. No thesis required."},
	{Level: 11, Symbol: "🧬", Label: "Specialist", Tagline: "You have opinions about methodology now."},
	{Level: 12, Symbol: "🛰️", Label: "Explorer", Tagline: "Charting fields nobody told you about."},
	{Level: 13, Symbol: "⚗️", Label: "Synthesizer", Tagline: "Connecting papers across disciplines."},
	{Level: 14, Symbol: "📚", Label: "Scholar", Tagline: "Your saved list needs its own index."},
	{Level: 15, Symbol: "🧭", Label: "Pathfinder", Tagline: "Others follow your reading trails."},
	{Level: 16, Symbol: "🏛️", Label: "Academic", Tagline: "Tenure-track energy."},
	{Level: 17, Symbol: "✒️", Label: "Reviewer", Tagline: "Reviewer 2, but kind."},
	{Level: 18, Symbol: "📡", Label: "Signal Finder", Tagline: "Cutting through the noise daily."},
	{Level: 19, Symbol: "🌋", Label: "Field Veteran", Tagline: "You remember when this was all preprints."},
	{Level: 20, Symbol: "🦉", Label: "Mentor", Tagline: "The Bonfire gathers around you."},
	{Level: 21, Symbol: "⚡", Label: "Catalyst", Tagline: "Discussions ignite when you post."},
	{Level: 22, Symbol: "🌌", Label: "Visionary", Tagline: "You cite the future."},
	{Level: 23, Symbol: "🏅", Label: "Distinguished", Tagline: "Your profile needs a trophy shelf."},
	{Level: 24, Symbol: "🚀", Label: "Pioneer", Tagline: "First into every new field."},
	{Level: 25, Symbol: "🌠", Label: "Luminary", Tagline: "Others navigate by your light."},
	{Level: 26, Symbol: "🗿", Label: "Institution", Tagline: "Part of the furniture, in the best way."},
	{Level: 27, Symbol: "🔱", Label: "Polymath", Tagline: "Is there a field you haven't touched?"},
	{Level: 28, Symbol: "👑", Label: "Sage", Tagline: "Wisdom measured in saved articles."},
	{Level: 29, Symbol: "🏆", Label: "Legend", Tagline: "One step from forever."},
	{Level: 30, Symbol: "♾️", Label: "Immortal", Tagline: "Your curiosity outlived the leaderboard."},
}

func init() {
	for i := range LevelTable {
		LevelTable[i].XPRequired = XpForLevel(i)
	}
}
