package origin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/origin/origintest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newConn(t *testing.T, opts ...origin.ConnectionOption) (*origin.Connection, *origintest.Host, *origintest.DialRecorder) {
	t.Helper()
	host := origintest.NewHost()
	dialer := &origintest.DialRecorder{Host: host}
	opts = append([]origin.ConnectionOption{origin.WithLogger(zaptest.NewLogger(t))}, opts...)
	return origin.NewConnection(dialer.Dial, opts...), host, dialer
}

func TestConnection_LazyAttach(t *testing.T) {
	conn, host, dialer := newConn(t)

	assert.Equal(t, 0, dialer.Count())
	assert.False(t, conn.Attached())

	h1, err := conn.Acquire(context.Background())
	require.NoError(t, err)
	h2, err := conn.Acquire(context.Background())
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, dialer.Count())
	assert.Equal(t, 2, conn.Live())
	assert.True(t, conn.Attached())
	assert.Equal(t, []string{"sec -poc"}, host.Commands())
}

func TestConnection_ReleaseWithoutAcquire(t *testing.T) {
	conn, _, _ := newConn(t)

	conn.Release()
	assert.Equal(t, 0, conn.Live())

	_, err := conn.Acquire(context.Background())
	require.NoError(t, err)
	conn.Release()
	conn.Release()
	assert.Equal(t, 0, conn.Live())
}

func TestConnection_DialFailure(t *testing.T) {
	conn, _, dialer := newConn(t)
	dialer.Err = errors.New("no such server")

	_, err := conn.Acquire(context.Background())
	assert.ErrorIs(t, err, origin.ErrConnect)
	assert.Equal(t, 0, conn.Live())
	assert.False(t, conn.Attached())

	// A later attempt dials again.
	dialer.Err = nil
	_, err = conn.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dialer.Count())
	assert.Equal(t, 1, conn.Live())
}

func TestConnection_ReadyTimeout(t *testing.T) {
	conn, host, _ := newConn(t, origin.WithReadyTimeout(20*time.Millisecond))
	gate := make(chan struct{})
	host.ReadyGate = gate
	defer close(gate)

	_, err := conn.Acquire(context.Background())
	assert.ErrorIs(t, err, origin.ErrConnect)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, conn.Live())
	assert.False(t, conn.Attached())
	assert.Eventually(t, func() bool { return host.Detaches() == 1 }, time.Second, time.Millisecond)
}

func TestConnection_ReadyTimeoutWithBusyHost(t *testing.T) {
	conn, host, dialer := newConn(t, origin.WithReadyTimeout(20*time.Millisecond))
	gate := make(chan struct{})
	host.ReadyGate = gate
	host.SerialDetach = true

	for i := 0; i < 2; i++ {
		start := time.Now()
		_, err := conn.Acquire(context.Background())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second, "Acquire must not wait for the host to detach")
	}
	assert.Equal(t, 2, dialer.Count())
	assert.Equal(t, 0, host.Detaches())

	close(gate)
	assert.Eventually(t, func() bool { return host.Detaches() == 2 }, time.Second, time.Millisecond)
}

func TestConnection_ReadyProbeFailure(t *testing.T) {
	conn, host, _ := newConn(t)
	host.ExecErr = errors.New("server busy")

	_, err := conn.Acquire(context.Background())
	assert.ErrorIs(t, err, origin.ErrConnect)
	assert.Equal(t, 0, conn.Live())
	assert.Equal(t, 1, host.Detaches())
}

func TestConnection_DetachOnLastRelease(t *testing.T) {
	tests := []struct {
		name        string
		mode        origin.Mode
		wantExits   int
		wantDetachs int
	}{
		{name: "new instance exits", mode: origin.ModeNew, wantExits: 1},
		{name: "attached instance is left running", mode: origin.ModeAttach, wantDetachs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, host, dialer := newConn(t, origin.WithMode(tt.mode))
			ctx := context.Background()

			_, err := conn.Acquire(ctx)
			require.NoError(t, err)
			_, err = conn.Acquire(ctx)
			require.NoError(t, err)

			conn.MarkExiting()
			assert.True(t, conn.Exiting())
			assert.False(t, conn.Detached())

			conn.Release()
			assert.False(t, conn.Detached())
			conn.Release()
			assert.True(t, conn.Detached())
			assert.False(t, conn.Attached())

			// Extra releases and exits never detach twice.
			conn.Release()
			conn.MarkExiting()

			assert.Equal(t, tt.wantExits, host.Exits())
			assert.Equal(t, tt.wantDetachs, host.Detaches())
			assert.Equal(t, tt.mode, dialer.Opts[0].Mode)

			_, err = conn.Acquire(ctx)
			assert.ErrorIs(t, err, origin.ErrDetached)
		})
	}
}

func TestConnection_MarkExitingNeverAttached(t *testing.T) {
	conn, host, dialer := newConn(t)

	conn.MarkExiting()
	assert.True(t, conn.Detached())
	assert.Equal(t, 0, dialer.Count())
	assert.Equal(t, 0, host.Exits())

	_, err := conn.Acquire(context.Background())
	assert.ErrorIs(t, err, origin.ErrDetached)
}

func TestConnection_ConcurrentReferences(t *testing.T) {
	conn, host, dialer := newConn(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := conn.Acquire(context.Background()); err == nil {
				conn.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, conn.Live())
	assert.Equal(t, 1, dialer.Count())
	assert.False(t, conn.Detached())

	conn.MarkExiting()
	assert.Equal(t, 1, host.Exits())
}

func TestConnection_ProgIDIsPassedToDialer(t *testing.T) {
	conn, _, dialer := newConn(t, origin.WithProgID("Origin.Application.10"))

	_, err := conn.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Release()

	assert.Equal(t, "Origin.Application.10", dialer.Opts[0].ProgID)
	assert.Equal(t, origin.ModeNew, dialer.Opts[0].Mode)
}
