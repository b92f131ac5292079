// Package tracker owns the local tournament state: the seat map, player
// records, and the undo history. Every accepted mutation is written back to
// the document store and announced to observers.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cardhall/seatscore/internal/seatscore"
)

var (
	ErrBadToken        = errors.New("unrecognized scan token")
	ErrNoActiveSeat    = errors.New("no active seat")
	ErrDuplicatePlayer = errors.New("player already seated")
	ErrSeatFull        = errors.New("seat is full")
	ErrUnknownSeat     = errors.New("seat not found")
	ErrBadOrder        = errors.New("order does not match the seat's players")
	ErrNothingToUndo   = errors.New("nothing to undo")
)

// Event is published to observers after every accepted mutation.
type Event struct {
	Type     string `json:"type"`
	SeatID   string `json:"seatId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Store persists the tracker state between runs.
type Store interface {
	LoadState(ctx context.Context) (State, error)
	SaveState(ctx context.Context, s State) error
}

// State is everything the tracker persists: the seat map, the player
// records, and the action history.
type State struct {
	Seats   map[string][]string               `json:"seats"`
	Players map[string]*seatscore.PlayerRecord `json:"players"`
	History []seatscore.Action                `json:"history"`
}

// Config wires a Tracker's collaborators.
type Config struct {
	Store        Store
	Logger       *slog.Logger
	Clock        clockwork.Clock
	ScanCooldown time.Duration
	Notify       func(Event)
}

// Tracker is the single coordinating service for all state mutations. All
// methods are safe for concurrent use; mutations run to completion under one
// lock, so observers always see a consistent state.
type Tracker struct {
	mu      sync.Mutex
	seats   map[string][]string
	players map[string]*seatscore.PlayerRecord
	history []seatscore.Action
	active  string

	store  Store
	logger *slog.Logger
	clock  clockwork.Clock
	notify func(Event)

	cooldown   time.Duration
	lastToken  string
	lastScanAt time.Time
}

// New loads persisted state from the store and returns a ready tracker.
func New(ctx context.Context, cfg Config) (*Tracker, error) {
	state, err := cfg.Store.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		seats:    state.Seats,
		players:  state.Players,
		history:  state.History,
		store:    cfg.Store,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		notify:   cfg.Notify,
		cooldown: cfg.ScanCooldown,
	}
	if t.clock == nil {
		t.clock = clockwork.NewRealClock()
	}
	if t.notify == nil {
		t.notify = func(Event) {}
	}
	return t, nil
}

// ScanResult reports how a scan token was handled.
type ScanResult struct {
	Kind     string `json:"kind"` // "seat" | "player" | "ignored"
	SeatID   string `json:"seatId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Scan handles one decoded token. Seat tokens become the active seat
// (created on first scan); player tokens are added to the active seat.
// The same token scanned again within the cooldown window is dropped.
func (t *Tracker) Scan(ctx context.Context, token string) (ScanResult, error) {
	token = strings.TrimSpace(token)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if token == t.lastToken && now.Sub(t.lastScanAt) < t.cooldown {
		return ScanResult{Kind: "ignored"}, nil
	}
	t.lastToken = token
	t.lastScanAt = now

	switch seatscore.ClassifyToken(token) {
	case seatscore.TokenSeat:
		t.active = token
		if _, ok := t.seats[token]; !ok {
			t.seats[token] = []string{}
		}
		t.persist(ctx)
		t.notify(Event{Type: "seat_scanned", SeatID: token})
		return ScanResult{Kind: "seat", SeatID: token}, nil

	case seatscore.TokenPlayer:
		if t.active == "" {
			return ScanResult{}, ErrNoActiveSeat
		}
		if err := t.addPlayer(ctx, t.active, token); err != nil {
			return ScanResult{}, err
		}
		return ScanResult{Kind: "player", SeatID: t.active, PlayerID: token}, nil

	default:
		return ScanResult{}, ErrBadToken
	}
}

// addPlayer validates and applies a player addition. Caller holds the lock.
func (t *Tracker) addPlayer(ctx context.Context, seatID, playerID string) error {
	seat := t.seats[seatID]
	if slices.Contains(seat, playerID) {
		return ErrDuplicatePlayer
	}
	if len(seat) >= seatscore.SeatCapacity {
		return ErrSeatFull
	}

	t.seats[seatID] = append(seat, playerID)
	t.getOrCreate(playerID)
	t.history = append(t.history, seatscore.Action{
		Type:     seatscore.ActionAddPlayer,
		SeatID:   seatID,
		PlayerID: playerID,
	})
	t.persist(ctx)
	t.notify(Event{Type: "player_added", SeatID: seatID, PlayerID: playerID})
	return nil
}

// getOrCreate returns the player's record, creating the default record on
// first sight. Caller holds the lock.
func (t *Tracker) getOrCreate(playerID string) *seatscore.PlayerRecord {
	p, ok := t.players[playerID]
	if !ok {
		p = seatscore.NewPlayerRecord(playerID)
		t.players[playerID] = p
	}
	return p
}

// RemovePlayer takes a player out of a seat, remembering its position so
// undo can reinsert it. Removing an absent player is a no-op.
func (t *Tracker) RemovePlayer(ctx context.Context, seatID, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seat, ok := t.seats[seatID]
	if !ok {
		return
	}
	idx := slices.Index(seat, playerID)
	if idx < 0 {
		return
	}

	t.seats[seatID] = slices.Delete(seat, idx, idx+1)
	t.history = append(t.history, seatscore.Action{
		Type:     seatscore.ActionRemovePlayer,
		SeatID:   seatID,
		PlayerID: playerID,
		Index:    idx,
	})
	t.persist(ctx)
	t.notify(Event{Type: "player_removed", SeatID: seatID, PlayerID: playerID})
}

// RemoveSeat deletes a seat, remembering its full player sequence for undo.
// Removing an absent seat is a no-op. Player records are never deleted.
func (t *Tracker) RemoveSeat(ctx context.Context, seatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seat, ok := t.seats[seatID]
	if !ok {
		return
	}

	t.history = append(t.history, seatscore.Action{
		Type:    seatscore.ActionRemoveSeat,
		SeatID:  seatID,
		Players: slices.Clone(seat),
	})
	delete(t.seats, seatID)
	if t.active == seatID {
		t.active = ""
	}
	t.persist(ctx)
	t.notify(Event{Type: "seat_removed", SeatID: seatID})
}

// Undo reverses the most recent not-yet-undone action and pops it off the
// history. Exactly one entry is removed per call.
func (t *Tracker) Undo(ctx context.Context) (seatscore.Action, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return seatscore.Action{}, ErrNothingToUndo
	}
	last := t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]

	switch last.Type {
	case seatscore.ActionAddPlayer:
		if seat, ok := t.seats[last.SeatID]; ok {
			if idx := slices.Index(seat, last.PlayerID); idx >= 0 {
				t.seats[last.SeatID] = slices.Delete(seat, idx, idx+1)
			}
		}
	case seatscore.ActionRemovePlayer:
		if seat, ok := t.seats[last.SeatID]; ok {
			idx := min(last.Index, len(seat))
			t.seats[last.SeatID] = slices.Insert(seat, idx, last.PlayerID)
		}
	case seatscore.ActionRemoveSeat:
		t.seats[last.SeatID] = slices.Clone(last.Players)
	}

	t.persist(ctx)
	t.notify(Event{Type: "undo", SeatID: last.SeatID, PlayerID: last.PlayerID})
	return last, nil
}

// ConfirmRanking applies a finishing order for one seat: the order must be
// a permutation of the seat's players. The rating engine runs exactly once
// per confirmation.
func (t *Tracker) ConfirmRanking(ctx context.Context, seatID string, order []string) ([]seatscore.RankResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seat, ok := t.seats[seatID]
	if !ok {
		return nil, ErrUnknownSeat
	}
	if !samePlayers(seat, order) {
		return nil, ErrBadOrder
	}

	results := seatscore.ApplyRanking(t.players, order)
	t.persist(ctx)
	t.notify(Event{Type: "ranking_confirmed", SeatID: seatID})
	return results, nil
}

func samePlayers(seat, order []string) bool {
	if len(seat) != len(order) {
		return false
	}
	a, b := slices.Sorted(slices.Values(seat)), slices.Sorted(slices.Values(order))
	return slices.Equal(a, b)
}

// Snapshot returns a deep copy of the seat map and player records for the
// sync layer.
func (t *Tracker) Snapshot() seatscore.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return seatscore.Snapshot{
		SeatMap:    cloneSeats(t.seats),
		PlayerData: clonePlayers(t.players),
	}
}

// Replace overwrites the seat map and player records wholesale, as when the
// remote store has newer content. The action history is preserved. The
// active seat is dropped if it no longer exists.
func (t *Tracker) Replace(ctx context.Context, seats map[string][]string, players map[string]*seatscore.PlayerRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seats == nil {
		seats = map[string][]string{}
	}
	if players == nil {
		players = map[string]*seatscore.PlayerRecord{}
	}
	t.seats = cloneSeats(seats)
	t.players = clonePlayers(players)
	if _, ok := t.seats[t.active]; !ok {
		t.active = ""
	}
	t.persist(ctx)
	t.notify(Event{Type: "state_replaced"})
	return nil
}

// View is a read-only copy of the current state for the HTTP surface.
type View struct {
	Seats      map[string][]string               `json:"seats"`
	Players    map[string]*seatscore.PlayerRecord `json:"players"`
	ActiveSeat string                            `json:"activeSeat,omitempty"`
	HistoryLen int                               `json:"historyLen"`
}

func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return View{
		Seats:      cloneSeats(t.seats),
		Players:    clonePlayers(t.players),
		ActiveSeat: t.active,
		HistoryLen: len(t.history),
	}
}

// persist writes the full state back to the store. Persistence failures are
// logged but never fail the mutation: the in-memory state stays the source
// of truth until the next successful write. Caller holds the lock.
func (t *Tracker) persist(ctx context.Context) {
	state := State{
		Seats:   t.seats,
		Players: t.players,
		History: t.history,
	}
	if err := t.store.SaveState(ctx, state); err != nil {
		t.logger.Error("persisting state", "error", err)
	}
}

func cloneSeats(seats map[string][]string) map[string][]string {
	out := make(map[string][]string, len(seats))
	for id, players := range seats {
		out[id] = slices.Clone(players)
	}
	return out
}

func clonePlayers(players map[string]*seatscore.PlayerRecord) map[string]*seatscore.PlayerRecord {
	out := make(map[string]*seatscore.PlayerRecord, len(players))
	for id, p := range players {
		rec := *p
		out[id] = &rec
	}
	return out
}
