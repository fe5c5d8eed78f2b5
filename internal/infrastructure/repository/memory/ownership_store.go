package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/draft"
	"github.com/riskibarqy/fantasy-roster/internal/domain/lineup"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
)

type playerKey struct {
	leagueID string
	playerID string
}

type ownershipState struct {
	owners       map[playerKey]ownership.Record
	lineup       map[playerKey]lineup.Slot
	reservations map[playerKey]draft.Reservation
	claims       map[string]waiver.Claim
	priorities   map[string]map[string]int
	ledger       []ownership.LedgerEntry
	failures     []ownership.FailedEntry
}

func newOwnershipState() *ownershipState {
	return &ownershipState{
		owners:       make(map[playerKey]ownership.Record),
		lineup:       make(map[playerKey]lineup.Slot),
		reservations: make(map[playerKey]draft.Reservation),
		claims:       make(map[string]waiver.Claim),
		priorities:   make(map[string]map[string]int),
	}
}

func (s *ownershipState) clone() *ownershipState {
	priorities := make(map[string]map[string]int, len(s.priorities))
	for leagueID, order := range s.priorities {
		priorities[leagueID] = maps.Clone(order)
	}

	return &ownershipState{
		owners:       maps.Clone(s.owners),
		lineup:       maps.Clone(s.lineup),
		reservations: maps.Clone(s.reservations),
		claims:       maps.Clone(s.claims),
		priorities:   priorities,
		ledger:       slices.Clone(s.ledger),
		failures:     slices.Clone(s.failures),
	}
}

// OwnershipStore keeps ownership, ledgers, reservations and waiver state in process.
// Units run one at a time against a private copy that replaces the shared state on commit.
type OwnershipStore struct {
	mu    sync.RWMutex
	state *ownershipState
}

func NewOwnershipStore() *OwnershipStore {
	return &OwnershipStore{state: newOwnershipState()}
}

func (s *OwnershipStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ownership.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &ownershipTx{state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state

	return nil
}

func (s *OwnershipStore) GetOwner(_ context.Context, leagueID, playerID string) (ownership.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.state.owners[playerKey{leagueID: leagueID, playerID: playerID}]
	return record, ok, nil
}

func (s *OwnershipStore) ListRoster(_ context.Context, leagueID, teamID string) ([]ownership.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ownership.RosterEntry, 0)
	for key, record := range s.state.owners {
		if key.leagueID != leagueID || record.TeamID != teamID {
			continue
		}
		entry := ownership.RosterEntry{
			PlayerID:    record.PlayerID,
			Acquisition: record.Acquisition,
			DraftRound:  record.DraftRound,
			DraftPick:   record.DraftPick,
			AssignedAt:  record.AssignedAt,
		}
		if slot, ok := s.state.lineup[key]; ok && slot.TeamID == teamID {
			entry.LineupSlot = slot.Slot
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PlayerID < out[j].PlayerID
	})

	return out, nil
}

func (s *OwnershipStore) ListOwnedPlayerIDs(_ context.Context, leagueID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0)
	for key := range s.state.owners {
		if key.leagueID == leagueID {
			out = append(out, key.playerID)
		}
	}
	sort.Strings(out)

	return out, nil
}

func (s *OwnershipStore) ListLedger(_ context.Context, leagueID string, limit int) ([]ownership.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ownership.LedgerEntry, 0)
	for i := len(s.state.ledger) - 1; i >= 0; i-- {
		if s.state.ledger[i].LeagueID != leagueID {
			continue
		}
		out = append(out, s.state.ledger[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}

func (s *OwnershipStore) ListFailures(_ context.Context, leagueID string, limit int) ([]ownership.FailedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ownership.FailedEntry, 0)
	for i := len(s.state.failures) - 1; i >= 0; i-- {
		if s.state.failures[i].LeagueID != leagueID {
			continue
		}
		out = append(out, s.state.failures[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}

func (s *OwnershipStore) ListClaims(_ context.Context, leagueID string, status waiver.Status) ([]waiver.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]waiver.Claim, 0)
	for _, claim := range s.state.claims {
		if claim.LeagueID != leagueID {
			continue
		}
		if status != "" && claim.Status != status {
			continue
		}
		out = append(out, claim)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *OwnershipStore) ListPriorities(_ context.Context, leagueID string) ([]waiver.Priority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedPriorities(leagueID, s.state.priorities[leagueID]), nil
}

// AssignLineupSlot stores a lineup slot the way the lineup service would.
func (s *OwnershipStore) AssignLineupSlot(_ context.Context, slot lineup.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.lineup[playerKey{leagueID: slot.LeagueID, playerID: slot.PlayerID}] = slot
}

// SetPriorities replaces the waiver order of a league. Index 0 gets priority 1.
func (s *OwnershipStore) SetPriorities(_ context.Context, leagueID string, teamIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := make(map[string]int, len(teamIDs))
	for i, teamID := range teamIDs {
		order[teamID] = i + 1
	}
	s.state.priorities[leagueID] = order
}

func sortedPriorities(leagueID string, order map[string]int) []waiver.Priority {
	out := make([]waiver.Priority, 0, len(order))
	for teamID, priority := range order {
		out = append(out, waiver.Priority{LeagueID: leagueID, TeamID: teamID, Priority: priority})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

type ownershipTx struct {
	state *ownershipState
}

// Units are already exclusive, so team and key locks are always granted.
func (tx *ownershipTx) LockTeam(context.Context, string, string) error {
	return nil
}

func (tx *ownershipTx) LockKey(context.Context, string) error {
	return nil
}

func (tx *ownershipTx) TryLockKey(context.Context, string) (bool, error) {
	return true, nil
}

func (tx *ownershipTx) GetOwner(_ context.Context, leagueID, playerID string) (ownership.Record, bool, error) {
	record, ok := tx.state.owners[playerKey{leagueID: leagueID, playerID: playerID}]
	return record, ok, nil
}

func (tx *ownershipTx) CountRoster(_ context.Context, leagueID, teamID string) (int, error) {
	count := 0
	for key, record := range tx.state.owners {
		if key.leagueID == leagueID && record.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

func (tx *ownershipTx) InsertRecord(_ context.Context, record ownership.Record) error {
	key := playerKey{leagueID: record.LeagueID, playerID: record.PlayerID}
	if _, exists := tx.state.owners[key]; exists {
		return fmt.Errorf("insert ownership league=%s player=%s: %w", record.LeagueID, record.PlayerID, ownership.ErrAlreadyOwned)
	}
	tx.state.owners[key] = record
	return nil
}

func (tx *ownershipTx) DeleteRecord(_ context.Context, leagueID, teamID, playerID string) (bool, error) {
	key := playerKey{leagueID: leagueID, playerID: playerID}
	record, ok := tx.state.owners[key]
	if !ok || record.TeamID != teamID {
		return false, nil
	}
	delete(tx.state.owners, key)
	return true, nil
}

func (tx *ownershipTx) ClearLineupSlot(_ context.Context, leagueID, teamID, playerID string) error {
	key := playerKey{leagueID: leagueID, playerID: playerID}
	if slot, ok := tx.state.lineup[key]; ok && slot.TeamID == teamID {
		delete(tx.state.lineup, key)
	}
	return nil
}

func (tx *ownershipTx) AppendLedger(_ context.Context, entry ownership.LedgerEntry) error {
	tx.state.ledger = append(tx.state.ledger, entry)
	return nil
}

func (tx *ownershipTx) AppendFailure(_ context.Context, entry ownership.FailedEntry) error {
	tx.state.failures = append(tx.state.failures, entry)
	return nil
}

func (tx *ownershipTx) GetReservation(_ context.Context, leagueID, playerID string) (draft.Reservation, bool, error) {
	r, ok := tx.state.reservations[playerKey{leagueID: leagueID, playerID: playerID}]
	return r, ok, nil
}

func (tx *ownershipTx) PutReservation(_ context.Context, r draft.Reservation, now time.Time) (bool, error) {
	key := playerKey{leagueID: r.LeagueID, playerID: r.PlayerID}
	if existing, ok := tx.state.reservations[key]; ok && existing.HeldByOther(r.TeamID, now) {
		return false, nil
	}
	tx.state.reservations[key] = r
	return true, nil
}

func (tx *ownershipTx) DeleteReservation(_ context.Context, leagueID, playerID, teamID string) (bool, error) {
	key := playerKey{leagueID: leagueID, playerID: playerID}
	existing, ok := tx.state.reservations[key]
	if !ok || (teamID != "" && existing.TeamID != teamID) {
		return false, nil
	}
	delete(tx.state.reservations, key)
	return true, nil
}

func (tx *ownershipTx) DeleteExpiredReservations(_ context.Context, now time.Time) (int, error) {
	removed := 0
	for key, r := range tx.state.reservations {
		if r.Expired(now) {
			delete(tx.state.reservations, key)
			removed++
		}
	}
	return removed, nil
}

func (tx *ownershipTx) InsertClaim(_ context.Context, claim waiver.Claim) error {
	if _, exists := tx.state.claims[claim.ID]; exists {
		return fmt.Errorf("insert waiver claim id=%s: duplicate id", claim.ID)
	}
	tx.state.claims[claim.ID] = claim
	return nil
}

func (tx *ownershipTx) ListDueClaims(_ context.Context, leagueID string, now time.Time, limit int) ([]waiver.Claim, error) {
	order := tx.state.priorities[leagueID]
	out := make([]waiver.Claim, 0)
	for _, claim := range tx.state.claims {
		if claim.LeagueID == leagueID && claim.Due(now) {
			out = append(out, claim)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := priorityOrLast(order, out[i].TeamID), priorityOrLast(order, out[j].TeamID)
		if pi != pj {
			return pi < pj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *ownershipTx) MarkClaim(_ context.Context, claimID string, status waiver.Status, failureReason string, processedAt time.Time) error {
	claim, ok := tx.state.claims[claimID]
	if !ok {
		return fmt.Errorf("mark waiver claim id=%s: not found", claimID)
	}
	if claim.Status.Terminal() {
		return fmt.Errorf("mark waiver claim id=%s: already %s", claimID, claim.Status)
	}
	claim.Status = status
	claim.FailureReason = failureReason
	claim.ProcessedAt = &processedAt
	tx.state.claims[claimID] = claim
	return nil
}

func (tx *ownershipTx) ListPriorities(_ context.Context, leagueID string) ([]waiver.Priority, error) {
	return sortedPriorities(leagueID, tx.state.priorities[leagueID]), nil
}

func (tx *ownershipTx) EnsurePriority(_ context.Context, leagueID, teamID string) (int, error) {
	order := tx.state.priorities[leagueID]
	if order == nil {
		order = make(map[string]int)
		tx.state.priorities[leagueID] = order
	}
	if priority, ok := order[teamID]; ok {
		return priority, nil
	}
	order[teamID] = maxPriority(order) + 1
	return order[teamID], nil
}

func (tx *ownershipTx) MoveToBack(_ context.Context, leagueID, teamID string) (int, error) {
	order := tx.state.priorities[leagueID]
	if order == nil {
		order = make(map[string]int)
		tx.state.priorities[leagueID] = order
	}
	next := maxPriority(order) + 1
	if current, ok := order[teamID]; ok && current == next-1 {
		return current, nil
	}
	order[teamID] = next
	return next, nil
}

func (tx *ownershipTx) Nested(ctx context.Context, fn func(ctx context.Context) error) error {
	savepoint := tx.state.clone()
	if err := fn(ctx); err != nil {
		tx.state = savepoint
		return err
	}
	return nil
}

func maxPriority(order map[string]int) int {
	highest := 0
	for _, priority := range order {
		if priority > highest {
			highest = priority
		}
	}
	return highest
}

func priorityOrLast(order map[string]int, teamID string) int {
	if priority, ok := order[teamID]; ok {
		return priority
	}
	return int(^uint(0) >> 1)
}
