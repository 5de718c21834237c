package feed

import "time"

type PlayersResponse struct {
	Data []PlayerRecord `json:"data"`
}

type PlayerRecord struct {
	PlayerID    string    `json:"player_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Position    string    `json:"position"`
	NFLTeam     string    `json:"nfl_team"`
	LastChanged time.Time `json:"last_changed"`
}

type WeekStatsResponse struct {
	Season int        `json:"season"`
	Week   int        `json:"week"`
	Data   []StatLine `json:"data"`
}

type StatLine struct {
	PlayerID    string             `json:"player_id"`
	Stats       map[string]float64 `json:"stats"`
	LastChanged time.Time          `json:"last_changed"`
}
