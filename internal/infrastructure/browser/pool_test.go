package browser

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfscout/backend/internal/domain"
)

// newTestPool returns a pool whose sessions are inert placeholders
func newTestPool(size int) (*Pool, *int32) {
	var launches int32
	p := NewPool(Config{Size: size})
	p.launch = func(ctx context.Context) (*Session, error) {
		atomic.AddInt32(&launches, 1)
		return &Session{}, nil
	}
	return p, &launches
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(Config{SettleDelay: -time.Second})

	assert.Equal(t, 1, p.cfg.Size)
	assert.Equal(t, 30*time.Second, p.cfg.RenderTimeout)
	assert.Equal(t, time.Duration(0), p.cfg.SettleDelay)
}

func TestPool_ReusesReleasedSession(t *testing.T) {
	p, launches := newTestPool(2)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(s1)

	s2, err := p.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), atomic.LoadInt32(launches))
}

func TestPool_LaunchesUpToSize(t *testing.T) {
	p, launches := newTestPool(2)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	require.NoError(t, err)
	s2, err := p.Acquire(ctx)
	require.NoError(t, err)

	assert.NotSame(t, s1, s2)
	assert.Equal(t, int32(2), atomic.LoadInt32(launches))

	// pool is exhausted: the third caller waits until its context expires
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(2), atomic.LoadInt32(launches))
}

func TestPool_WaiterGetsReleasedSession(t *testing.T) {
	p, _ := newTestPool(1)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	require.NoError(t, err)

	got := make(chan *Session, 1)
	go func() {
		s, err := p.Acquire(ctx)
		if err == nil {
			got <- s
		}
	}()

	time.Sleep(20 * time.Millisecond)
	p.Release(s1)

	select {
	case s := <-got:
		assert.Same(t, s1, s)
	case <-time.After(time.Second):
		t.Fatal("waiter was never handed the released session")
	}
}

func TestPool_DiscardFreesSlot(t *testing.T) {
	p, launches := newTestPool(1)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Discard(s1)

	s2, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, int32(2), atomic.LoadInt32(launches))
}

func TestPool_LaunchFailureDisablesPool(t *testing.T) {
	p := NewPool(Config{Size: 2})
	var launches int32
	p.launch = func(ctx context.Context) (*Session, error) {
		atomic.AddInt32(&launches, 1)
		return nil, errors.New("chromium not found")
	}

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBrowserUnavailable)

	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, domain.ErrBrowserUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&launches), "disabled pool must not relaunch")

	_, err = p.Render(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, domain.ErrBrowserUnavailable)
}

func TestPool_Close(t *testing.T) {
	p, _ := newTestPool(2)
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	require.NoError(t, err)
	s2, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(s1)

	p.Close()
	p.Close()

	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, ErrPoolClosed)

	// in-flight session is torn down on release and its slot freed
	p.Release(s2)
	assert.Len(t, p.slots, 0)
	assert.Len(t, p.idle, 0)
}

func TestPool_DiscardLogsRenderCount(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	p, _ := newTestPool(1)
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	s.renders = 3

	p.Discard(s)

	assert.Contains(t, buf.String(), `"renders":3`)
	assert.Contains(t, buf.String(), "browser session closed")
}
