package postgres

import (
	"database/sql"
	"time"
)

type ownershipRecordTableModel struct {
	LeagueID    string        `db:"league_id"`
	PlayerID    string        `db:"player_id"`
	TeamID      string        `db:"team_id"`
	Acquisition string        `db:"acquisition"`
	DraftRound  sql.NullInt32 `db:"draft_round"`
	DraftPick   sql.NullInt32 `db:"draft_pick"`
	AssignedAt  time.Time     `db:"assigned_at"`
}

type ownershipRecordInsertModel struct {
	LeagueID    string    `db:"league_id"`
	PlayerID    string    `db:"player_id"`
	TeamID      string    `db:"team_id"`
	Acquisition string    `db:"acquisition"`
	DraftRound  *int      `db:"draft_round"`
	DraftPick   *int      `db:"draft_pick"`
	AssignedAt  time.Time `db:"assigned_at"`
}

type rosterEntryRow struct {
	PlayerID    string        `db:"player_id"`
	Acquisition string        `db:"acquisition"`
	DraftRound  sql.NullInt32 `db:"draft_round"`
	DraftPick   sql.NullInt32 `db:"draft_pick"`
	LineupSlot  string        `db:"lineup_slot"`
	AssignedAt  time.Time     `db:"assigned_at"`
}

type ledgerTableModel struct {
	ID              string         `db:"id"`
	LeagueID        string         `db:"league_id"`
	TeamID          string         `db:"team_id"`
	PlayerID        string         `db:"player_id"`
	DroppedPlayerID sql.NullString `db:"dropped_player_id"`
	Action          string         `db:"action"`
	Source          string         `db:"source"`
	CreatedAt       time.Time      `db:"created_at"`
	DurationMs      int64          `db:"duration_ms"`
}

type ledgerInsertModel struct {
	ID              string    `db:"id"`
	LeagueID        string    `db:"league_id"`
	TeamID          string    `db:"team_id"`
	PlayerID        string    `db:"player_id"`
	DroppedPlayerID *string   `db:"dropped_player_id"`
	Action          string    `db:"action"`
	Source          string    `db:"source"`
	CreatedAt       time.Time `db:"created_at"`
	DurationMs      int64     `db:"duration_ms"`
}

type failureTableModel struct {
	ID              string         `db:"id"`
	LeagueID        string         `db:"league_id"`
	TeamID          string         `db:"team_id"`
	PlayerID        string         `db:"player_id"`
	DroppedPlayerID sql.NullString `db:"dropped_player_id"`
	Reason          string         `db:"reason"`
	Detail          string         `db:"detail"`
	Source          string         `db:"source"`
	AttemptedAt     time.Time      `db:"attempted_at"`
}

type failureInsertModel struct {
	ID              string    `db:"id"`
	LeagueID        string    `db:"league_id"`
	TeamID          string    `db:"team_id"`
	PlayerID        string    `db:"player_id"`
	DroppedPlayerID *string   `db:"dropped_player_id"`
	Reason          string    `db:"reason"`
	Detail          string    `db:"detail"`
	Source          string    `db:"source"`
	AttemptedAt     time.Time `db:"attempted_at"`
}

type reservationTableModel struct {
	LeagueID   string    `db:"league_id"`
	PlayerID   string    `db:"player_id"`
	TeamID     string    `db:"team_id"`
	ReservedAt time.Time `db:"reserved_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

type waiverClaimTableModel struct {
	ID               string         `db:"id"`
	LeagueID         string         `db:"league_id"`
	TeamID           string         `db:"team_id"`
	PlayerID         string         `db:"player_id"`
	DroppedPlayerID  sql.NullString `db:"dropped_player_id"`
	Status           string         `db:"status"`
	PrioritySnapshot int            `db:"priority_snapshot"`
	ProcessAt        time.Time      `db:"process_at"`
	CreatedAt        time.Time      `db:"created_at"`
	ProcessedAt      sql.NullTime   `db:"processed_at"`
	FailureReason    sql.NullString `db:"failure_reason"`
}

type waiverClaimInsertModel struct {
	ID               string    `db:"id"`
	LeagueID         string    `db:"league_id"`
	TeamID           string    `db:"team_id"`
	PlayerID         string    `db:"player_id"`
	DroppedPlayerID  *string   `db:"dropped_player_id"`
	Status           string    `db:"status"`
	PrioritySnapshot int       `db:"priority_snapshot"`
	ProcessAt        time.Time `db:"process_at"`
	CreatedAt        time.Time `db:"created_at"`
}

type waiverPriorityTableModel struct {
	LeagueID string `db:"league_id"`
	TeamID   string `db:"team_id"`
	Priority int    `db:"priority"`
}
