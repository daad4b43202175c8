package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

// TokenOps is the minimal surface the minter needs from the token use case.
type TokenOps interface {
	Mint(ctx context.Context) (*model.RotatingToken, error)
	PurgeExpired(ctx context.Context) (int, error)
	Interval(ctx context.Context) time.Duration
}

// TokenMinter owns the rotating-token schedule: purge then mint eagerly on
// Start, then one purge+mint cycle per interval. Start and Stop are
// idempotent; Stop cancels the loop but lets an in-flight cycle finish, so
// the last minted token simply runs out its TTL.
type TokenMinter struct {
	ops TokenOps
	log *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTokenMinter(ops TokenOps, logger *zerolog.Logger) *TokenMinter {
	l := logger.With().Str("component", "TokenMinter").Logger()
	return &TokenMinter{ops: ops, log: &l}
}

// Start begins the minting loop. Calling Start on a running minter has no
// effect.
func (m *TokenMinter) Start(parent context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.done = make(chan struct{})

	interval := m.ops.Interval(ctx)
	m.log.Info().Dur("interval", interval).Msg("token minter started")
	go m.loop(ctx, interval, m.done)
}

// Stop cancels the loop and waits for it to finish. Idempotent.
func (m *TokenMinter) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info().Msg("token minter stopped")
}

// Running reports whether the loop is active.
func (m *TokenMinter) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *TokenMinter) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.cycle()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycle()
		}
	}
}

// cycle purges then mints. Both are best-effort: failures are logged and the
// next tick retries. The context is detached from the loop so Stop never
// aborts an in-flight cycle; the last token minted just runs out its TTL.
func (m *TokenMinter) cycle() {
	runCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if n, err := m.ops.PurgeExpired(runCtx); err != nil {
		m.log.Warn().Err(err).Msg("purge failed, will retry next cycle")
	} else if n > 0 {
		m.log.Debug().Int("count", n).Msg("expired tokens purged")
	}

	if _, err := m.ops.Mint(runCtx); err != nil {
		m.log.Error().Err(err).Msg("mint failed")
	}
}
