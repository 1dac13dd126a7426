package mongos

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeClient stands in for a driver client. Ping and Disconnect block on their
// gates when set, so tests can observe the transitional states.
type fakeClient struct {
	pingGate       chan struct{}
	pingErr        error
	disconnectGate chan struct{}
	disconnectErr  error
	disconnects    atomic.Int32
	driver         *mongo.Client
}

func (c *fakeClient) Ping(ctx context.Context) error {
	if c.pingGate != nil {
		select {
		case <-c.pingGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.pingErr
}

func (c *fakeClient) Disconnect(ctx context.Context) error {
	c.disconnects.Add(1)
	if c.disconnectGate != nil {
		select {
		case <-c.disconnectGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.disconnectErr
}

func (c *fakeClient) Database(name string) *mongo.Database {
	return c.driver.Database(name)
}

type fakeDialer struct {
	mu             sync.Mutex
	dials          int
	dialErr        error
	pingGate       chan struct{}
	pingErr        error
	disconnectGate chan struct{}
	clients        []*fakeClient
	driver         *mongo.Client
}

func newFakeDialer(t *testing.T) *fakeDialer {
	t.Helper()

	// An unconnected driver client is enough to hand out *mongo.Database and
	// *mongo.Collection values; it never touches the network.
	driver, err := mongo.NewClient(options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("failed to build driver client: %v", err)
	}
	return &fakeDialer{driver: driver}
}

func (d *fakeDialer) Dial(_ context.Context, _ Config) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &fakeClient{
		pingGate:       d.pingGate,
		pingErr:        d.pingErr,
		disconnectGate: d.disconnectGate,
		driver:         d.driver,
	}
	d.clients = append(d.clients, c)
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) Clients() []*fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeClient(nil), d.clients...)
}

func testConfig() Config {
	return Config{
		Host:     "localhost:27017",
		Database: "mongos_test",
		Username: "app",
		Password: "s3cret",
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitForState(t *testing.T, conn *Connection, want ReadyState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if conn.ReadyState() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ready state = %s, want %s", conn.ReadyState(), want)
}
