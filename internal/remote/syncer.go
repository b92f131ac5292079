package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cardhall/seatscore/internal/seatscore"
)

// ErrSaveInFlight is returned when a save arrives while another is still
// outstanding. The second request is dropped, not queued.
var ErrSaveInFlight = errors.New("save already in progress")

// LocalState is the tracker surface the syncer needs.
type LocalState interface {
	Snapshot() seatscore.Snapshot
	Replace(ctx context.Context, seats map[string][]string, players map[string]*seatscore.PlayerRecord) error
}

// Syncer pushes and pulls snapshots against the remote store. A single
// in-flight flag serializes saves and suspends the poll loop while a save
// is outstanding, so a poll-driven overwrite can never race a save.
type Syncer struct {
	client   *Client
	local    LocalState
	logger   *slog.Logger
	clock    clockwork.Clock
	interval time.Duration

	saving atomic.Bool
}

func NewSyncer(client *Client, local LocalState, logger *slog.Logger, clock clockwork.Clock, interval time.Duration) *Syncer {
	return &Syncer{
		client:   client,
		local:    local,
		logger:   logger,
		clock:    clock,
		interval: interval,
	}
}

// Save pushes local state to the remote. The sequence is: read the remote
// snapshot to learn the latest revision (abort on failure rather than guess
// one), then submit local state tagged with that revision. Polling is
// suspended for the duration and resumes unconditionally.
func (s *Syncer) Save(ctx context.Context) error {
	if !s.saving.CompareAndSwap(false, true) {
		return ErrSaveInFlight
	}
	defer s.saving.Store(false)

	current, err := s.client.Load(ctx)
	if err != nil {
		return fmt.Errorf("fetching current revision: %w", err)
	}

	snap := s.local.Snapshot()
	snap.Rev = current.Rev
	if err := s.client.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info("snapshot saved", "rev", snap.Rev)
	return nil
}

// Pull fetches the remote snapshot immediately and overwrites local state
// with it, regardless of differences. Used by the manual load action.
func (s *Syncer) Pull(ctx context.Context) error {
	snap, err := s.client.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if err := s.local.Replace(ctx, snap.SeatMap, snap.PlayerData); err != nil {
		return fmt.Errorf("applying snapshot: %w", err)
	}
	return nil
}

// Run polls the remote on a fixed interval until ctx is cancelled. A tick
// that lands while a save is in flight is skipped. Remote failures are
// logged and the loop stays on local state.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if s.saving.Load() {
				continue
			}
			s.pollOnce(ctx)
		}
	}
}

func (s *Syncer) pollOnce(ctx context.Context) {
	snap, err := s.client.Load(ctx)
	if err != nil {
		s.logger.Debug("poll skipped", "error", err)
		return
	}

	local := s.local.Snapshot()
	if reflect.DeepEqual(snap.SeatMap, local.SeatMap) &&
		reflect.DeepEqual(snap.PlayerData, local.PlayerData) {
		return
	}

	if err := s.local.Replace(ctx, snap.SeatMap, snap.PlayerData); err != nil {
		s.logger.Error("applying remote update", "error", err)
		return
	}
	s.logger.Info("remote update applied", "rev", snap.Rev)
}
