package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardhall/seatscore/internal/seatscore"
)

// Document names in the documents table, one row per persisted key.
const (
	docSeatMap       = "seat_map"
	docPlayerData    = "player_data"
	docActionHistory = "action_history"
)

// SQLiteStore persists tracker state as JSONB documents, one row per key.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// LoadState reads the three documents. A missing or corrupt document yields
// its empty default; only real database errors are returned.
func (s *SQLiteStore) LoadState(ctx context.Context) (State, error) {
	state := State{
		Seats:   map[string][]string{},
		Players: map[string]*seatscore.PlayerRecord{},
		History: []seatscore.Action{},
	}

	if err := s.get(ctx, docSeatMap, &state.Seats); err != nil {
		return State{}, fmt.Errorf("loading %s: %w", docSeatMap, err)
	}
	if err := s.get(ctx, docPlayerData, &state.Players); err != nil {
		return State{}, fmt.Errorf("loading %s: %w", docPlayerData, err)
	}
	if err := s.get(ctx, docActionHistory, &state.History); err != nil {
		return State{}, fmt.Errorf("loading %s: %w", docActionHistory, err)
	}

	if state.Seats == nil {
		state.Seats = map[string][]string{}
	}
	if state.Players == nil {
		state.Players = map[string]*seatscore.PlayerRecord{}
	}
	if state.History == nil {
		state.History = []seatscore.Action{}
	}
	return state, nil
}

// SaveState rewrites all three documents in one transaction.
func (s *SQLiteStore) SaveState(ctx context.Context, state State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	docs := map[string]any{
		docSeatMap:       state.Seats,
		docPlayerData:    state.Players,
		docActionHistory: state.History,
	}
	for name, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (name, data) VALUES (?, jsonb(?))
			ON CONFLICT(name) DO UPDATE SET data = excluded.data
		`, name, string(data))
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// get unmarshals one document into dest. Missing rows and undecodable
// payloads both leave dest at its default, matching "corrupt local data is
// replaced with empty defaults" semantics.
func (s *SQLiteStore) get(ctx context.Context, name string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE name = ?`, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		// Corrupt document: fall back to the empty default.
		return nil
	}
	return nil
}
