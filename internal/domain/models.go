package domain

import (
	"time"
)

type Player struct {
	PlayerID        string
	FirstName       string
	LastName        string
	Position        string
	NFLTeam         string
	LastChangedDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatLine is one published version of a player's raw statistics for a
// single (season, week). Corrections never mutate a row; they append a new
// version with a fresh VersionID so historical scores stay reproducible.
type StatLine struct {
	VersionID       string // nanoid
	PlayerID        string
	Season          int
	Week            int
	Stats           map[string]float64
	IngestedAt      time.Time
	LastChangedDate time.Time
}

// ScoringRules is one published version of a league's category multipliers.
// Categories absent from Multipliers contribute zero points.
type ScoringRules struct {
	VersionID   string // nanoid
	LeagueID    string
	Multipliers map[string]float64
	PublishedAt time.Time
}

type League struct {
	LeagueID        string
	Name            string
	ScoringType     string
	LastChangedDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Teams           []Team
}

type Team struct {
	TeamID          string
	LeagueID        string
	Name            string
	LastChangedDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Roster          []RosterSlot
}

type RosterSlot struct {
	Slot   string // "QB", "RB1", "FLEX", ...
	Player Player
}

// FantasyScore is derived, never ground truth. RecordVersion and RuleVersion
// identify exactly which inputs produced Points.
type FantasyScore struct {
	PlayerID      string
	Season        int
	Week          int
	LeagueID      string
	Points        float64
	RecordVersion string
	RuleVersion   string
}

type PlayerPerformance struct {
	Record *StatLine
	Scores []FantasyScore
}

type PlayerScore struct {
	Player Player
	Slot   string
	Points float64
	// HasRecord is false on bye weeks and injuries; Points is 0 then.
	HasRecord bool
}

type TeamScore struct {
	Team         Team
	PlayerScores []PlayerScore
	Total        float64
}

type Standing struct {
	Rank  int
	Team  Team
	Total float64
}

type Counts struct {
	PlayerCount int64
	TeamCount   int64
	LeagueCount int64
}

// PlayerFilter narrows ListPlayers. Zero values mean no filter.
type PlayerFilter struct {
	Skip               int
	Limit              int
	FirstName          string
	LastName           string
	MinLastChangedDate time.Time
}

type LeagueFilter struct {
	Skip               int
	Limit              int
	LeagueName         string
	MinLastChangedDate time.Time
}

type TeamFilter struct {
	Skip               int
	Limit              int
	TeamName           string
	LeagueID           string
	MinLastChangedDate time.Time
}

type PerformanceFilter struct {
	Skip               int
	Limit              int
	MinLastChangedDate time.Time
}
