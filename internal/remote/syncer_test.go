package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/cardhall/seatscore/internal/seatscore"
)

// fakeRemote is an httptest-backed stand-in for the remote document store.
type fakeRemote struct {
	mu       sync.Mutex
	snap     seatscore.Snapshot
	gets     int
	posts    int
	lastBody seatscore.Snapshot
	failGet  bool
	reject   bool
	blockGet chan struct{} // when set, GET waits until closed
	getBegan chan struct{}
}

func (f *fakeRemote) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			f.mu.Lock()
			f.gets++
			began, block, fail, snap := f.getBegan, f.blockGet, f.failGet, f.snap
			f.mu.Unlock()

			if began != nil {
				select {
				case began <- struct{}{}:
				default:
				}
			}
			if block != nil {
				<-block
			}
			if fail {
				http.Error(w, "remote exploded", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(snap)

		case http.MethodPost:
			var body seatscore.Snapshot
			json.NewDecoder(r.Body).Decode(&body)

			f.mu.Lock()
			f.posts++
			f.lastBody = body
			reject := f.reject
			f.mu.Unlock()

			json.NewEncoder(w).Encode(map[string]bool{"ok": !reject})
		}
	}
}

func (f *fakeRemote) counts() (gets, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.posts
}

// fakeLocal implements LocalState with a fixed snapshot and records
// Replace calls.
type fakeLocal struct {
	mu       sync.Mutex
	snap     seatscore.Snapshot
	replaced []seatscore.Snapshot
}

func (l *fakeLocal) Snapshot() seatscore.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

func (l *fakeLocal) Replace(_ context.Context, seats map[string][]string, players map[string]*seatscore.PlayerRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = seatscore.Snapshot{SeatMap: seats, PlayerData: players}
	l.replaced = append(l.replaced, l.snap)
	return nil
}

func (l *fakeLocal) replaceCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.replaced)
}

func emptySnapshot() seatscore.Snapshot {
	return seatscore.Snapshot{
		SeatMap:    map[string][]string{},
		PlayerData: map[string]*seatscore.PlayerRecord{},
	}
}

func setupSyncer(t *testing.T, remote *fakeRemote, local *fakeLocal, clock clockwork.Clock) *Syncer {
	t.Helper()
	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)
	return NewSyncer(NewClient(srv.URL, ""), local, slog.Default(), clock, 20*time.Second)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSaveReadsRevisionThenPosts(t *testing.T) {
	remote := &fakeRemote{snap: seatscore.Snapshot{
		SeatMap:    map[string][]string{},
		PlayerData: map[string]*seatscore.PlayerRecord{},
		Rev:        7,
	}}
	local := &fakeLocal{snap: seatscore.Snapshot{
		SeatMap:    map[string][]string{"table01": {"player01"}},
		PlayerData: map[string]*seatscore.PlayerRecord{"player01": {Nickname: "player01", Rate: 50}},
	}}
	s := setupSyncer(t, remote, local, clockwork.NewFakeClock())

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	gets, posts := remote.counts()
	if gets != 1 || posts != 1 {
		t.Errorf("requests = %d GET / %d POST, want 1/1", gets, posts)
	}
	if remote.lastBody.Rev != 7 {
		t.Errorf("posted rev = %d, want 7 (the revision just read)", remote.lastBody.Rev)
	}
	if diff := cmp.Diff(local.snap.SeatMap, remote.lastBody.SeatMap); diff != "" {
		t.Errorf("posted seat map mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAbortsWhenRevisionFetchFails(t *testing.T) {
	remote := &fakeRemote{failGet: true}
	local := &fakeLocal{snap: emptySnapshot()}
	s := setupSyncer(t, remote, local, clockwork.NewFakeClock())

	if err := s.Save(context.Background()); err == nil {
		t.Fatal("save succeeded, want abort when the revision fetch fails")
	}

	if _, posts := remote.counts(); posts != 0 {
		t.Errorf("posts = %d, want 0 (no revision guessing)", posts)
	}
	if local.replaceCount() != 0 {
		t.Errorf("local state was replaced during a failed save")
	}
}

func TestSaveSurfacesRejection(t *testing.T) {
	remote := &fakeRemote{snap: emptySnapshot(), reject: true}
	local := &fakeLocal{snap: emptySnapshot()}
	s := setupSyncer(t, remote, local, clockwork.NewFakeClock())

	err := s.Save(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
}

func TestSaveDropsConcurrentRequest(t *testing.T) {
	block := make(chan struct{})
	began := make(chan struct{}, 1)
	remote := &fakeRemote{snap: emptySnapshot(), blockGet: block, getBegan: began}
	local := &fakeLocal{snap: emptySnapshot()}
	s := setupSyncer(t, remote, local, clockwork.NewFakeClock())

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	<-began

	// A second save while the first is outstanding is dropped.
	if err := s.Save(context.Background()); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("second save: err = %v, want ErrSaveInFlight", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}

	if _, posts := remote.counts(); posts != 1 {
		t.Errorf("posts = %d, want exactly 1 save sequence", posts)
	}

	// With the first save finished, saving works again.
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("third save: %v", err)
	}
}

func TestPollAppliesRemoteUpdateAndPersists(t *testing.T) {
	remote := &fakeRemote{snap: seatscore.Snapshot{
		SeatMap:    map[string][]string{"table02": {"player09"}},
		PlayerData: map[string]*seatscore.PlayerRecord{"player09": {Nickname: "player09", Rate: 62}},
		Rev:        3,
	}}
	local := &fakeLocal{snap: emptySnapshot()}
	clock := clockwork.NewFakeClock()
	s := setupSyncer(t, remote, local, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	clock.BlockUntil(1)
	clock.Advance(20 * time.Second)

	waitFor(t, "remote update applied", func() bool { return local.replaceCount() == 1 })

	if diff := cmp.Diff(remote.snap.SeatMap, local.Snapshot().SeatMap); diff != "" {
		t.Errorf("local seat map after poll (-want +got):\n%s", diff)
	}
}

func TestPollLeavesEqualStateAlone(t *testing.T) {
	snap := seatscore.Snapshot{
		SeatMap:    map[string][]string{"table01": {"player01"}},
		PlayerData: map[string]*seatscore.PlayerRecord{"player01": {Nickname: "player01", Rate: 50}},
	}
	remote := &fakeRemote{snap: snap}
	local := &fakeLocal{snap: snap}
	clock := clockwork.NewFakeClock()
	s := setupSyncer(t, remote, local, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	clock.BlockUntil(1)
	clock.Advance(20 * time.Second)
	waitFor(t, "poll round trip", func() bool { gets, _ := remote.counts(); return gets >= 1 })

	time.Sleep(50 * time.Millisecond)
	if local.replaceCount() != 0 {
		t.Errorf("local state replaced despite equal remote content")
	}
}

func TestPollSurvivesRemoteFailure(t *testing.T) {
	remote := &fakeRemote{failGet: true}
	local := &fakeLocal{snap: emptySnapshot()}
	clock := clockwork.NewFakeClock()
	s := setupSyncer(t, remote, local, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	clock.BlockUntil(1)
	clock.Advance(20 * time.Second)
	waitFor(t, "failed poll round trip", func() bool { gets, _ := remote.counts(); return gets >= 1 })

	if local.replaceCount() != 0 {
		t.Errorf("local state replaced after a failed poll")
	}
}

func TestPollSuspendedDuringSave(t *testing.T) {
	block := make(chan struct{})
	began := make(chan struct{}, 1)
	remote := &fakeRemote{snap: emptySnapshot(), blockGet: block, getBegan: began}
	local := &fakeLocal{snap: emptySnapshot()}
	clock := clockwork.NewFakeClock()
	s := setupSyncer(t, remote, local, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	clock.BlockUntil(1)

	done := make(chan error, 1)
	go func() { done <- s.Save(ctx) }()
	<-began

	// Ticks landing while the save is outstanding are skipped.
	clock.Advance(20 * time.Second)
	time.Sleep(50 * time.Millisecond)
	if gets, _ := remote.counts(); gets != 1 {
		t.Errorf("gets = %d, want 1 (poll must not run during a save)", gets)
	}

	// Let the save finish; blockGet must be cleared first so the save's
	// POST-side GETs and resumed polls proceed.
	remote.mu.Lock()
	remote.blockGet = nil
	remote.mu.Unlock()
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}

	// Polling resumes unconditionally after the save.
	clock.Advance(20 * time.Second)
	waitFor(t, "polling to resume", func() bool { gets, _ := remote.counts(); return gets >= 2 })
}
