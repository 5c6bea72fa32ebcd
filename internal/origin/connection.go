package origin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultReadyTimeout = 60 * time.Second

// Connection is the single shared link to the host. Wrapper objects hold a
// reference each; the host is attached on the first Acquire and detached
// once MarkExiting has been called and the last reference is released.
type Connection struct {
	mu           sync.Mutex
	dial         Dialer
	opts         DialOptions
	readyTimeout time.Duration
	logger       *zap.Logger

	host     Host
	live     int
	exiting  bool
	detached bool
}

// ConnectionOption configures a Connection.
type ConnectionOption func(*Connection)

func WithLogger(logger *zap.Logger) ConnectionOption {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithReadyTimeout(d time.Duration) ConnectionOption {
	return func(c *Connection) {
		if d > 0 {
			c.readyTimeout = d
		}
	}
}

func WithMode(mode Mode) ConnectionOption {
	return func(c *Connection) {
		c.opts.Mode = mode
	}
}

func WithProgID(progID string) ConnectionOption {
	return func(c *Connection) {
		c.opts.ProgID = progID
	}
}

// NewConnection returns an unattached connection. Nothing is dialled until
// the first Acquire.
func NewConnection(dial Dialer, opts ...ConnectionOption) *Connection {
	c := &Connection{
		dial:         dial,
		opts:         DialOptions{Mode: ModeNew},
		readyTimeout: defaultReadyTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire takes a reference on the connection, attaching to the host first
// if needed. On failure the live count is left unchanged.
func (c *Connection) Acquire(ctx context.Context) (Host, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return nil, ErrDetached
	}
	if c.host == nil {
		dctx, cancel := context.WithTimeout(ctx, c.readyTimeout)
		defer cancel()
		host, err := c.dial(dctx, c.opts)
		if err != nil {
			c.logger.Warn("failed to attach to Origin", zap.String("mode", string(c.opts.Mode)), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrConnect, err)
		}
		if host == nil {
			return nil, fmt.Errorf("%w: dialer returned no host", ErrConnect)
		}
		if err := waitReady(dctx, host); err != nil {
			c.logger.Warn("Origin did not become ready", zap.Error(err))
			if dctx.Err() != nil {
				// The probe is still running on the host, and Detach queues
				// behind it.
				go host.Detach()
			} else {
				host.Detach()
			}
			return nil, fmt.Errorf("%w: %w", ErrConnect, err)
		}
		c.host = host
		c.logger.Info("attached to Origin", zap.String("mode", string(c.opts.Mode)))
	}
	c.live++
	return c.host, nil
}

// readyCommand blocks until Origin C has finished compiling its startup
// code.
const readyCommand = "sec -poc"

func waitReady(ctx context.Context, host Host) error {
	done := make(chan error, 1)
	go func() {
		_, err := host.Execute(readyCommand)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for Origin: %w", ctx.Err())
	}
}

// Release drops one reference. Extra releases are logged and ignored.
func (c *Connection) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live == 0 {
		c.logger.Warn("connection released more times than acquired")
		return
	}
	c.live--
	if c.exiting && c.live == 0 {
		c.detachLocked()
	}
}

// MarkExiting records that the process is shutting down. If no references
// are outstanding the host is detached right away; otherwise the last
// Release does it.
func (c *Connection) MarkExiting() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exiting = true
	if c.live == 0 {
		c.detachLocked()
	}
}

func (c *Connection) detachLocked() {
	if c.detached {
		return
	}
	c.detached = true
	if c.host == nil {
		return
	}
	if c.opts.Mode == ModeNew {
		c.host.Exit()
	} else {
		c.host.Detach()
	}
	c.host = nil
	c.logger.Info("detached from Origin")
}

// Live returns the number of outstanding references.
func (c *Connection) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Attached reports whether a host is currently attached.
func (c *Connection) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host != nil
}

func (c *Connection) Exiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exiting
}

func (c *Connection) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

// with runs fn under a temporary reference.
func (c *Connection) with(ctx context.Context, fn func(Host) error) error {
	host, err := c.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(host)
}
