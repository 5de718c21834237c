package server

import (
	"time"

	"fantasy-tracker/internal/domain"
)

type playerResponse struct {
	PlayerID        string    `json:"player_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Position        string    `json:"position"`
	NFLTeam         string    `json:"nfl_team"`
	LastChangedDate time.Time `json:"last_changed_date"`
}

type statLineResponse struct {
	VersionID       string             `json:"version_id"`
	PlayerID        string             `json:"player_id"`
	Season          int                `json:"season"`
	Week            int                `json:"week"`
	Stats           map[string]float64 `json:"stats"`
	LastChangedDate time.Time          `json:"last_changed_date"`
}

type fantasyScoreResponse struct {
	LeagueID      string  `json:"league_id"`
	Points        float64 `json:"points"`
	RecordVersion string  `json:"record_version"`
	RuleVersion   string  `json:"rule_version"`
}

type performanceResponse struct {
	Record statLineResponse       `json:"record"`
	Scores []fantasyScoreResponse `json:"scores"`
}

type rosterSlotResponse struct {
	Slot   string         `json:"slot"`
	Player playerResponse `json:"player"`
}

type teamResponse struct {
	TeamID          string               `json:"team_id"`
	LeagueID        string               `json:"league_id"`
	Name            string               `json:"name"`
	LastChangedDate time.Time            `json:"last_changed_date"`
	Roster          []rosterSlotResponse `json:"roster"`
}

type leagueResponse struct {
	LeagueID        string         `json:"league_id"`
	Name            string         `json:"name"`
	ScoringType     string         `json:"scoring_type"`
	LastChangedDate time.Time      `json:"last_changed_date"`
	Teams           []teamResponse `json:"teams"`
}

type playerScoreResponse struct {
	Player    playerResponse `json:"player"`
	Slot      string         `json:"slot"`
	Points    float64        `json:"points"`
	HasRecord bool           `json:"has_record"`
}

type teamScoreResponse struct {
	Team         teamResponse          `json:"team"`
	PlayerScores []playerScoreResponse `json:"player_scores"`
	Total        float64               `json:"total"`
}

type standingResponse struct {
	Rank  int          `json:"rank"`
	Team  teamResponse `json:"team"`
	Total float64      `json:"total"`
}

type countsResponse struct {
	PlayerCount int64 `json:"player_count"`
	TeamCount   int64 `json:"team_count"`
	LeagueCount int64 `json:"league_count"`
}

func toPlayerResponse(p domain.Player) playerResponse {
	return playerResponse{
		PlayerID:        p.PlayerID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Position:        p.Position,
		NFLTeam:         p.NFLTeam,
		LastChangedDate: p.LastChangedDate,
	}
}

func toStatLineResponse(line domain.StatLine) statLineResponse {
	return statLineResponse{
		VersionID:       line.VersionID,
		PlayerID:        line.PlayerID,
		Season:          line.Season,
		Week:            line.Week,
		Stats:           line.Stats,
		LastChangedDate: line.LastChangedDate,
	}
}

func toStatLineResponses(lines []domain.StatLine) []statLineResponse {
	out := make([]statLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, toStatLineResponse(line))
	}
	return out
}

func toPerformanceResponse(perf *domain.PlayerPerformance) performanceResponse {
	scores := make([]fantasyScoreResponse, 0, len(perf.Scores))
	for _, score := range perf.Scores {
		scores = append(scores, fantasyScoreResponse{
			LeagueID:      score.LeagueID,
			Points:        score.Points,
			RecordVersion: score.RecordVersion,
			RuleVersion:   score.RuleVersion,
		})
	}
	return performanceResponse{
		Record: toStatLineResponse(*perf.Record),
		Scores: scores,
	}
}

func toTeamResponse(t domain.Team) teamResponse {
	roster := make([]rosterSlotResponse, 0, len(t.Roster))
	for _, slot := range t.Roster {
		roster = append(roster, rosterSlotResponse{
			Slot:   slot.Slot,
			Player: toPlayerResponse(slot.Player),
		})
	}
	return teamResponse{
		TeamID:          t.TeamID,
		LeagueID:        t.LeagueID,
		Name:            t.Name,
		LastChangedDate: t.LastChangedDate,
		Roster:          roster,
	}
}

func toLeagueResponse(l domain.League) leagueResponse {
	teams := make([]teamResponse, 0, len(l.Teams))
	for _, t := range l.Teams {
		teams = append(teams, toTeamResponse(t))
	}
	return leagueResponse{
		LeagueID:        l.LeagueID,
		Name:            l.Name,
		ScoringType:     l.ScoringType,
		LastChangedDate: l.LastChangedDate,
		Teams:           teams,
	}
}

func toTeamScoreResponse(score *domain.TeamScore) teamScoreResponse {
	playerScores := make([]playerScoreResponse, 0, len(score.PlayerScores))
	for _, ps := range score.PlayerScores {
		playerScores = append(playerScores, playerScoreResponse{
			Player:    toPlayerResponse(ps.Player),
			Slot:      ps.Slot,
			Points:    ps.Points,
			HasRecord: ps.HasRecord,
		})
	}
	return teamScoreResponse{
		Team:         toTeamResponse(score.Team),
		PlayerScores: playerScores,
		Total:        score.Total,
	}
}
