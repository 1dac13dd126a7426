package mongos

import (
	"context"
	"fmt"
	"sync"
)

// Mongos guards a Connection so that Connect and Disconnect are safe to call
// in any state.
//
// Operations are serialized: the state read and the scheduling decision happen
// under one lock, and each scheduled operation waits for the previous one to
// settle before it starts.
//
//	db := mongos.New(mongos.ConfigFromEnv())
//	if err := db.Connect().Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close(ctx)
type Mongos struct {
	conn *Connection
	lazy bool

	mu   sync.Mutex
	tail *Result // last scheduled operation
}

// Option is a functional option for configuring Mongos.
type Option func(*settings)

type settings struct {
	lazyConnect bool
	logger      Logger
	metrics     Metrics
	dialer      Dialer
}

// WithLazyConnect defers the first connect attempt until Connect is called.
func WithLazyConnect() Option {
	return func(s *settings) { s.lazyConnect = true }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics Metrics) Option {
	return func(s *settings) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithDialer replaces the MongoDB driver dialer.
func WithDialer(dialer Dialer) Option {
	return func(s *settings) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

// New creates the wrapper and its Connection.
//
// Unless WithLazyConnect is given, a connect attempt starts immediately and the
// connection is Connecting when New returns. New never fails: configuration and
// network errors are reported by the Result of the attempt, see Connect.
func New(cfg Config, opts ...Option) *Mongos {
	s := settings{
		logger:  &NoOpLogger{},
		metrics: &NoOpMetrics{},
		dialer:  MongoDialer{},
	}
	for _, opt := range opts {
		opt(&s)
	}

	m := &Mongos{
		conn: newConnection(cfg, s.dialer, s.logger, s.metrics),
		lazy: s.lazyConnect,
	}

	if !m.lazy {
		m.Connect()
	}
	return m
}

// MustConnect is like New followed by waiting for the first connect, but
// panics on error. Use this for demos, prototypes, and when failure should
// crash the app.
func MustConnect(ctx context.Context, cfg Config, opts ...Option) *Mongos {
	m := New(cfg, opts...)
	if err := m.Connect().Wait(ctx); err != nil {
		panic(fmt.Sprintf("mongos.MustConnect failed: %v", err))
	}
	return m
}

// Connection returns the underlying handle, including its ready state and
// model registry.
func (m *Mongos) Connection() *Connection {
	return m.conn
}

// ReadyState is shorthand for Connection().ReadyState().
func (m *Mongos) ReadyState() ReadyState {
	return m.conn.ReadyState()
}

// Connect starts a connect attempt unless one is unnecessary.
//
//   - Connected: returns an already-settled successful Result.
//   - Connecting: returns the in-flight Result; no second attempt is made.
//   - Disconnecting: the attempt is queued behind the disconnect.
//   - Disconnected: the state becomes Connecting before Connect returns.
//
// Failures are reported through the Result and are never retried.
func (m *Mongos) Connect() *Result {
	return m.schedule(OpConnect)
}

// Disconnect tears the connection down unless it is already down.
//
//   - Disconnected: returns an already-settled successful Result.
//   - Disconnecting: returns the in-flight Result.
//   - Connecting: queued until the connect settles, then disconnects if it
//     succeeded.
//   - Connected: the state becomes Disconnecting before Disconnect returns.
func (m *Mongos) Disconnect() *Result {
	return m.schedule(OpDisconnect)
}

// Close disconnects and waits for the teardown to finish.
func (m *Mongos) Close(ctx context.Context) error {
	return m.Disconnect().Wait(ctx)
}

func (m *Mongos) schedule(op Operation) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.tail
	if prev != nil && !prev.Settled() {
		if prev.Operation() == op {
			return prev
		}
		r := newResult(op)
		m.tail = r
		m.conn.logger.Debug("operation queued",
			"connection", m.conn.id,
			"operation", r.id,
			"kind", string(op),
			"after", prev.id,
		)
		go m.runAfter(prev, r)
		return r
	}

	if !m.begin(op) {
		return settledResult(op)
	}
	r := newResult(op)
	m.tail = r
	go m.run(r)
	return r
}

// begin moves the connection into the transitional state for op. It reports
// false when the connection already sits where op would leave it.
// Callers hold m.mu.
func (m *Mongos) begin(op Operation) bool {
	state := m.conn.ReadyState()
	switch op {
	case OpConnect:
		if state == Connected {
			return false
		}
		m.conn.setState(Connecting)
	case OpDisconnect:
		if state == Disconnected {
			return false
		}
		m.conn.setState(Disconnecting)
	}
	return true
}

func (m *Mongos) runAfter(prev, r *Result) {
	<-prev.Done()

	m.mu.Lock()
	started := m.begin(r.op)
	m.mu.Unlock()

	if !started {
		r.settle(nil)
		return
	}
	m.run(r)
}

func (m *Mongos) run(r *Result) {
	var err error
	switch r.op {
	case OpConnect:
		ctx, cancel := context.WithTimeout(context.Background(), m.conn.cfg.connectTimeout())
		err = m.conn.open(ctx, r.id)
		cancel()
	case OpDisconnect:
		ctx, cancel := context.WithTimeout(context.Background(), m.conn.cfg.disconnectTimeout())
		err = m.conn.close(ctx, r.id)
		cancel()
	}
	r.settle(err)
}
