package tracker

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cardhall/seatscore/internal/seatscore"
)

func TestLoadStateEmptyDatabase(t *testing.T) {
	store := setupStore(t)

	state, err := store.LoadState(context.Background())
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	if len(state.Seats) != 0 || len(state.Players) != 0 || len(state.History) != 0 {
		t.Errorf("state = %+v, want empty defaults", state)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	want := State{
		Seats: map[string][]string{"table01": {"player01", "player02"}},
		Players: map[string]*seatscore.PlayerRecord{
			"player01": {Nickname: "player01", Rate: 54, LastRank: 1, Bonus: 4, Title: seatscore.TitleChampion},
			"player02": {Nickname: "player02", Rate: 52, LastRank: 2, Bonus: 2},
		},
		History: []seatscore.Action{
			{Type: seatscore.ActionAddPlayer, SeatID: "table01", PlayerID: "player01"},
		},
	}
	if err := store.SaveState(ctx, want); err != nil {
		t.Fatalf("saving state: %v", err)
	}

	got, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := State{
		Seats:   map[string][]string{"table01": {"player01"}},
		Players: map[string]*seatscore.PlayerRecord{"player01": seatscore.NewPlayerRecord("player01")},
		History: []seatscore.Action{},
	}
	if err := store.SaveState(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := State{
		Seats:   map[string][]string{"table02": {"player02"}},
		Players: map[string]*seatscore.PlayerRecord{"player02": seatscore.NewPlayerRecord("player02")},
		History: []seatscore.Action{},
	}
	if err := store.SaveState(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStateCorruptDocumentFallsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Valid JSON, wrong shape: a string where the seat map object belongs.
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO documents (name, data) VALUES (?, jsonb(?))`,
		docSeatMap, `"scrambled"`,
	)
	if err != nil {
		t.Fatalf("planting corrupt document: %v", err)
	}

	state, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	if len(state.Seats) != 0 {
		t.Errorf("seats = %+v, want empty default after corruption", state.Seats)
	}
}
