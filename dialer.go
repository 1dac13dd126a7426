package mongos

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client is the subset of the driver client a Connection depends on.
type Client interface {
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Database(name string) *mongo.Database
}

// Dialer creates driver clients. Substitute it with WithDialer to run the
// lifecycle without a server.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Client, error)
}

// MongoDialer dials with the official MongoDB Go driver.
type MongoDialer struct{}

// Dial creates a driver client. The driver connects in the background, so a
// nil error here does not mean the server is reachable; the caller pings.
func (MongoDialer) Dial(ctx context.Context, cfg Config) (Client, error) {
	client, err := mongo.Connect(ctx, ClientOptions(cfg))
	if err != nil {
		return nil, err
	}
	return &driverClient{client: client}, nil
}

// ClientOptions translates a Config into driver options.
func ClientOptions(cfg Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.ConnectionURI()).
		SetServerSelectionTimeout(cfg.connectTimeout()).
		SetConnectTimeout(cfg.connectTimeout())

	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.AuthSource,
		})
	}
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	return opts
}

// driverClient adapts *mongo.Client to Client.
type driverClient struct {
	client *mongo.Client
}

func (c *driverClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *driverClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *driverClient) Database(name string) *mongo.Database {
	return c.client.Database(name)
}

// Driver returns the underlying *mongo.Client for callers that need the full
// driver API.
func (c *driverClient) Driver() *mongo.Client {
	return c.client
}
