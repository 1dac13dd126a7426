package mongos

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Connection is the handle to one database session.
//
// It owns the driver client, the ready state, and the model registry. The
// state only changes through the Mongos that created the Connection; callers
// read it with ReadyState and register models directly on the handle.
type Connection struct {
	id      string
	cfg     Config
	dialer  Dialer
	logger  Logger
	metrics Metrics

	state atomic.Int32

	mu     sync.RWMutex
	client Client
	models map[string]*Model
}

func newConnection(cfg Config, dialer Dialer, logger Logger, metrics Metrics) *Connection {
	c := &Connection{
		id:      NewID(),
		cfg:     cfg,
		dialer:  dialer,
		logger:  logger,
		metrics: metrics,
		models:  make(map[string]*Model),
	}
	c.setState(Disconnected)
	return c
}

// ID identifies the connection in logs.
func (c *Connection) ID() string { return c.id }

// Name returns the database name this connection targets.
func (c *Connection) Name() string { return c.cfg.Database }

// Host returns the configured host or URI with any password masked.
func (c *Connection) Host() string { return c.cfg.redactedHost() }

// ReadyState returns the current lifecycle state.
func (c *Connection) ReadyState() ReadyState {
	return ReadyState(c.state.Load())
}

// Client returns the driver client, or nil when not connected.
func (c *Connection) Client() Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Driver returns the underlying *mongo.Client when the connection was dialed
// by MongoDialer.
func (c *Connection) Driver() (*mongo.Client, bool) {
	d, ok := c.Client().(interface{ Driver() *mongo.Client })
	if !ok {
		return nil, false
	}
	return d.Driver(), true
}

// Database returns the configured database.
// Returns ErrNotConnected unless the connection is established.
func (c *Connection) Database() (*mongo.Database, error) {
	client := c.Client()
	if client == nil || c.ReadyState() != Connected {
		return nil, WithContext(ErrNotConnected, map[string]interface{}{
			"database": c.cfg.Database,
			"state":    c.ReadyState().String(),
		})
	}
	return client.Database(c.cfg.Database), nil
}

func (c *Connection) setState(s ReadyState) {
	prev := ReadyState(c.state.Swap(int32(s)))
	c.metrics.Gauge(MetricConnectionState, float64(s), "database", c.cfg.Database)
	if prev != s {
		c.logger.Debug("ready state changed",
			"connection", c.id,
			"from", prev.String(),
			"to", s.String(),
		)
	}
}

// open dials and pings. The caller has already moved the state to Connecting;
// open leaves it Connected on success and Disconnected on failure.
func (c *Connection) open(ctx context.Context, opID string) error {
	start := time.Now()
	c.metrics.Increment(MetricConnectAttempts, "database", c.cfg.Database)
	c.logger.Info("connecting",
		"connection", c.id,
		"operation", opID,
		"host", c.cfg.redactedHost(),
		"database", c.cfg.Database,
	)

	err := c.dial(ctx)
	c.metrics.Timing(MetricConnectDuration, time.Since(start),
		"database", c.cfg.Database, "operation", string(OpConnect))

	if err != nil {
		c.metrics.Increment(MetricConnectErrors, "database", c.cfg.Database, "error_type", errorType(err))
		c.setState(Disconnected)
		c.logger.Error("connect failed",
			"connection", c.id,
			"operation", opID,
			"error", err,
		)
		return err
	}

	c.setState(Connected)
	c.logger.Info("connected",
		"connection", c.id,
		"operation", opID,
		"duration", time.Since(start),
	)
	return nil
}

func (c *Connection) dial(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	errCtx := map[string]interface{}{
		"host":     c.cfg.redactedHost(),
		"database": c.cfg.Database,
	}

	client, err := c.dialer.Dial(ctx, c.cfg)
	if err != nil {
		return wrapCause(ErrConnectFailed, err, errCtx)
	}

	if err := client.Ping(ctx); err != nil {
		// The driver client is half-open; release its monitors before reporting.
		dctx, cancel := context.WithTimeout(context.Background(), c.cfg.disconnectTimeout())
		defer cancel()
		if derr := client.Disconnect(dctx); derr != nil {
			c.logger.Warn("release after failed ping", "connection", c.id, "error", derr)
		}
		return wrapCause(ErrConnectFailed, err, errCtx)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// close tears the client down. The state always ends Disconnected, even when
// the driver reports an error, because the client is discarded either way.
func (c *Connection) close(ctx context.Context, opID string) error {
	start := time.Now()

	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	var err error
	if client != nil {
		err = client.Disconnect(ctx)
	}

	c.metrics.Timing(MetricConnectDuration, time.Since(start),
		"database", c.cfg.Database, "operation", string(OpDisconnect))
	c.metrics.Increment(MetricDisconnects, "database", c.cfg.Database)
	c.setState(Disconnected)

	if err != nil {
		c.metrics.Increment(MetricDisconnectErrors, "database", c.cfg.Database)
		c.logger.Warn("disconnect reported an error",
			"connection", c.id,
			"operation", opID,
			"error", err,
		)
		return wrapCause(ErrDisconnectFailed, err, map[string]interface{}{
			"database": c.cfg.Database,
		})
	}

	c.logger.Info("disconnected",
		"connection", c.id,
		"operation", opID,
	)
	return nil
}

// errorType buckets connect failures for the metrics label.
func errorType(err error) string {
	switch {
	case IsInvalidConfig(err):
		return "invalid_config"
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return "timeout"
	case mongo.IsNetworkError(err):
		return "network"
	default:
		return "other"
	}
}
