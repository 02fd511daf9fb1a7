package main

// GameSummary is one archived game in the /api/games listing.
type GameSummary struct {
	GameID     string `json:"game_id"`
	StartedNs  int64  `json:"started_ns"`
	Source     string `json:"source"`
	Mode       string `json:"mode"`
	Width      int32  `json:"width"`
	Height     int32  `json:"height"`
	Turns      int32  `json:"turns"`
	ShotsToWin int32  `json:"shots_to_win"`
	File       string `json:"file"`
}

// GamesResponse is the paginated response for the /api/games endpoint.
type GamesResponse struct {
	Total int64         `json:"total"`
	Games []GameSummary `json:"games"`
}

// Cell mirrors a board coordinate in API responses.
type Cell struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// TurnDetail is one replayable turn. Board is a row-major glyph string of
// the position after the turn's result (and any sink) was applied.
type TurnDetail struct {
	GameID     string  `json:"game_id"`
	Turn       int32   `json:"turn"`
	Width      int32   `json:"width"`
	Height     int32   `json:"height"`
	Mode       string  `json:"mode"`
	Target     Cell    `json:"target"`
	Outcome    string  `json:"outcome"`
	SunkLen    int32   `json:"sunk_len"`
	Ships      []int32 `json:"ships"`
	HitMem     []Cell  `json:"hit_mem"`
	Board      string  `json:"board"`
	ShotsToWin int32   `json:"shots_to_win"`
	Source     string  `json:"source"`
}

// StatRow aggregates shots-to-win over the finished games of one
// source/mode/board-size group.
type StatRow struct {
	Source    string  `json:"source"`
	Mode      string  `json:"mode"`
	Width     int32   `json:"width"`
	Height    int32   `json:"height"`
	Games     int64   `json:"games"`
	MinShots  int32   `json:"min_shots"`
	MeanShots float64 `json:"mean_shots"`
	MaxShots  int32   `json:"max_shots"`
}

// StatsResponse is the response for the /api/stats endpoint.
type StatsResponse struct {
	Rows []StatRow `json:"rows"`
}

// RefreshResponse reports the archive size after a forced refresh.
type RefreshResponse struct {
	Games int64 `json:"games"`
}
