package ownership

import (
	"time"
)

// Acquisition records how a team came to own a player.
type Acquisition string

const (
	AcquisitionAdd    Acquisition = "add"
	AcquisitionDraft  Acquisition = "draft"
	AcquisitionWaiver Acquisition = "waiver"
)

// Record is the durable fact that a team holds a player within a league.
type Record struct {
	LeagueID    string
	PlayerID    string
	TeamID      string
	Acquisition Acquisition
	DraftRound  *int
	DraftPick   *int
	AssignedAt  time.Time
}

// RosterEntry is a read projection of a Record with its lineup slot, if any.
type RosterEntry struct {
	PlayerID    string
	Acquisition Acquisition
	DraftRound  *int
	DraftPick   *int
	LineupSlot  string
	AssignedAt  time.Time
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionDrop   Action = "drop"
	ActionSwap   Action = "swap"
	ActionDraft  Action = "draft"
	ActionWaiver Action = "waiver"
)

// ActionFor picks the ledger action for a manual move.
func ActionFor(addPlayerID, dropPlayerID string) Action {
	switch {
	case addPlayerID != "" && dropPlayerID != "":
		return ActionSwap
	case dropPlayerID != "":
		return ActionDrop
	default:
		return ActionAdd
	}
}

const (
	SourceManual = "manual"
	SourceDraft  = "draft"
	SourceWaiver = "waiver"
)

// LedgerEntry is written once per committed ownership change.
type LedgerEntry struct {
	ID              string
	LeagueID        string
	TeamID          string
	PlayerID        string
	DroppedPlayerID string
	Action          Action
	Source          string
	CreatedAt       time.Time
	DurationMs      int64
}

// FailedEntry is written once per rejected or rolled back attempt.
type FailedEntry struct {
	ID              string
	LeagueID        string
	TeamID          string
	PlayerID        string
	DroppedPlayerID string
	Reason          Reason
	Detail          string
	Source          string
	AttemptedAt     time.Time
}

// ChangeEvent is published after a commit that changed ownership in a league.
type ChangeEvent struct {
	LeagueID        string    `json:"league_id"`
	TeamID          string    `json:"team_id"`
	AddedPlayerID   string    `json:"added_player_id,omitempty"`
	DroppedPlayerID string    `json:"dropped_player_id,omitempty"`
	Action          Action    `json:"action"`
	OccurredAt      time.Time `json:"occurred_at"`
}
