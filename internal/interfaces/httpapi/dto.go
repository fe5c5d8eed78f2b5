package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

type moveRequest struct {
	AddPlayerID  string `json:"addPlayerId" validate:"required_without=DropPlayerID,max=64"`
	DropPlayerID string `json:"dropPlayerId" validate:"required_without=AddPlayerID,max=64"`
}

type reserveRequest struct {
	TeamID   string `json:"teamId" validate:"required,max=64"`
	PlayerID string `json:"playerId" validate:"required,max=64"`
}

type confirmPickRequest struct {
	TeamID     string `json:"teamId" validate:"required,max=64"`
	PlayerID   string `json:"playerId" validate:"required,max=64"`
	Round      int    `json:"round" validate:"gte=0"`
	PickNumber int    `json:"pickNumber" validate:"gte=0"`
}

type waiverClaimRequest struct {
	PlayerID     string     `json:"playerId" validate:"required,max=64"`
	DropPlayerID string     `json:"dropPlayerId" validate:"omitempty,max=64,nefield=PlayerID"`
	ProcessAt    *time.Time `json:"processAt"`
}

type internalWaiverJobRequest struct {
	LeagueID  string   `json:"leagueId"`
	LeagueIDs []string `json:"leagueIds"`
}

type leagueDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Season          string `json:"season"`
	MaxRosterSize   int    `json:"maxRosterSize"`
	WaiverBatchSize int    `json:"waiverBatchSize,omitempty"`
}

type playerDTO struct {
	ID       string `json:"id"`
	LeagueID string `json:"leagueId"`
	Name     string `json:"name"`
	Club     string `json:"club"`
	Position string `json:"position"`
}

type rosterEntryDTO struct {
	PlayerID    string `json:"playerId"`
	Acquisition string `json:"acquisition"`
	DraftRound  *int   `json:"draftRound,omitempty"`
	DraftPick   *int   `json:"draftPick,omitempty"`
	LineupSlot  string `json:"lineupSlot,omitempty"`
	AssignedAt  string `json:"assignedAt"`
}

type moveResultDTO struct {
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	Message         string `json:"message,omitempty"`
	TeamID          string `json:"teamId,omitempty"`
	AddedPlayerID   string `json:"addedPlayerId,omitempty"`
	DroppedPlayerID string `json:"droppedPlayerId,omitempty"`
	NoOp            bool   `json:"noOp"`
	LedgerEntryID   string `json:"ledgerEntryId,omitempty"`
}

type draftResultDTO struct {
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	Message       string `json:"message,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	NoOp          bool   `json:"noOp"`
	LedgerEntryID string `json:"ledgerEntryId,omitempty"`
}

type ledgerEntryDTO struct {
	ID              string `json:"id"`
	TeamID          string `json:"teamId"`
	PlayerID        string `json:"playerId"`
	DroppedPlayerID string `json:"droppedPlayerId,omitempty"`
	Action          string `json:"action"`
	Source          string `json:"source"`
	DurationMs      int64  `json:"durationMs"`
	CreatedAt       string `json:"createdAt"`
}

type failedEntryDTO struct {
	ID              string `json:"id"`
	TeamID          string `json:"teamId,omitempty"`
	PlayerID        string `json:"playerId,omitempty"`
	DroppedPlayerID string `json:"droppedPlayerId,omitempty"`
	Reason          string `json:"reason"`
	Detail          string `json:"detail,omitempty"`
	Source          string `json:"source"`
	AttemptedAt     string `json:"attemptedAt"`
}

type claimDTO struct {
	ID               string `json:"id"`
	TeamID           string `json:"teamId"`
	PlayerID         string `json:"playerId"`
	DroppedPlayerID  string `json:"droppedPlayerId,omitempty"`
	Status           string `json:"status"`
	PrioritySnapshot int    `json:"prioritySnapshot"`
	ProcessAt        string `json:"processAt"`
	CreatedAt        string `json:"createdAt"`
	ProcessedAt      string `json:"processedAt,omitempty"`
	FailureReason    string `json:"failureReason,omitempty"`
}

type priorityDTO struct {
	TeamID   string `json:"teamId"`
	Priority int    `json:"priority"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:              v.ID,
		Name:            v.Name,
		Season:          v.Season,
		MaxRosterSize:   v.RosterLimit(),
		WaiverBatchSize: v.WaiverBatchSize,
	}
}

func playerToDTO(v player.Player) playerDTO {
	return playerDTO{
		ID:       v.ID,
		LeagueID: v.LeagueID,
		Name:     v.Name,
		Club:     v.Club,
		Position: string(v.Position),
	}
}

func rosterEntryToDTO(v ownership.RosterEntry) rosterEntryDTO {
	return rosterEntryDTO{
		PlayerID:    v.PlayerID,
		Acquisition: string(v.Acquisition),
		DraftRound:  v.DraftRound,
		DraftPick:   v.DraftPick,
		LineupSlot:  v.LineupSlot,
		AssignedAt:  formatTime(v.AssignedAt),
	}
}

func moveResultToDTO(v usecase.MoveResult) moveResultDTO {
	return moveResultDTO{
		Status:          string(v.Status),
		Reason:          string(v.Reason),
		Message:         v.Message,
		TeamID:          v.TeamID,
		AddedPlayerID:   v.AddedPlayerID,
		DroppedPlayerID: v.DroppedPlayerID,
		NoOp:            v.NoOp,
		LedgerEntryID:   v.LedgerEntryID,
	}
}

func draftResultToDTO(v usecase.DraftResult) draftResultDTO {
	status := usecase.ResultStatusFailed
	if v.Success {
		status = usecase.ResultStatusSuccess
	}

	return draftResultDTO{
		Status:        string(status),
		Reason:        string(v.Reason),
		Message:       v.Message,
		ExpiresAt:     formatTime(v.ExpiresAt),
		NoOp:          v.NoOp,
		LedgerEntryID: v.LedgerEntryID,
	}
}

func ledgerEntryToDTO(v ownership.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:              v.ID,
		TeamID:          v.TeamID,
		PlayerID:        v.PlayerID,
		DroppedPlayerID: v.DroppedPlayerID,
		Action:          string(v.Action),
		Source:          v.Source,
		DurationMs:      v.DurationMs,
		CreatedAt:       formatTime(v.CreatedAt),
	}
}

func failedEntryToDTO(v ownership.FailedEntry) failedEntryDTO {
	return failedEntryDTO{
		ID:              v.ID,
		TeamID:          v.TeamID,
		PlayerID:        v.PlayerID,
		DroppedPlayerID: v.DroppedPlayerID,
		Reason:          string(v.Reason),
		Detail:          v.Detail,
		Source:          v.Source,
		AttemptedAt:     formatTime(v.AttemptedAt),
	}
}

func claimToDTO(v waiver.Claim) claimDTO {
	out := claimDTO{
		ID:               v.ID,
		TeamID:           v.TeamID,
		PlayerID:         v.PlayerID,
		DroppedPlayerID:  v.DroppedPlayerID,
		Status:           string(v.Status),
		PrioritySnapshot: v.PrioritySnapshot,
		ProcessAt:        formatTime(v.ProcessAt),
		CreatedAt:        formatTime(v.CreatedAt),
		FailureReason:    v.FailureReason,
	}
	if v.ProcessedAt != nil {
		out.ProcessedAt = formatTime(*v.ProcessedAt)
	}
	return out
}
