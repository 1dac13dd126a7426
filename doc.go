// Package mongos wraps the official MongoDB Go driver with a guarded connection
// lifecycle and a model registry.
//
// # Overview
//
// A Mongos owns exactly one Connection. Constructing it starts connecting
// right away unless WithLazyConnect is given, and Connect and Disconnect may be
// called in any state without starting duplicate work:
//
//	db := mongos.New(mongos.Config{
//	    Host:     "localhost:27017",
//	    Database: "app",
//	})
//	db.ReadyState() // mongos.Connecting
//
//	if err := db.Connect().Wait(ctx); err != nil { // joins the in-flight attempt
//	    return err
//	}
//	defer db.Close(ctx)
//
// # Ready State
//
// The Connection moves through four states. The numeric values are stable and
// exported as a Prometheus gauge:
//
//	0 Disconnected  1 Connected  2 Connecting  3 Disconnecting
//
// Connect on a Connected handle and Disconnect on a Disconnected handle return
// Results that have already succeeded. Operations that conflict with the one
// in flight are queued behind it; nothing is cancelled and nothing is retried.
//
// # Deferred Results
//
// Connect and Disconnect return a *Result instead of blocking. When no other
// operation is in flight the state has already changed when they return, so
// callers can observe Connecting or Disconnecting immediately and wait later.
// An operation queued behind a different one leaves the state alone until the
// earlier one settles; Connect during Disconnecting still reports
// Disconnecting.
//
//	r := db.Connect()
//	select {
//	case <-r.Done():
//	    err := r.Err()
//	case <-ctx.Done():
//	}
//
// # Models
//
// Models are registered directly on the Connection and do not need a live
// connection:
//
//	users, err := db.Connection().Model("User", mongos.Schema{})
//	users.CollectionName() // "users"
//	db.Connection().Models() // exactly {"User": users}
//
// Model.Sync creates the collection with the schema's validator and indexes
// once connected. Validation is performed by the server.
//
// # Observability
//
// Logging and metrics are injected per instance, so tests can silence or
// inspect output without touching global state:
//
//	logger, _ := mongos.NewProductionZapLogger(zapcore.InfoLevel)
//	metrics := mongos.NewPrometheusMetrics(prometheus.DefaultRegisterer)
//	db := mongos.New(cfg, mongos.WithLogger(logger), mongos.WithMetrics(metrics))
package mongos
