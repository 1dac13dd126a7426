package mongos

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// codeNamespaceExists is the server error code for creating a collection that already exists.
const codeNamespaceExists = 48

// Schema binds a model to its collection.
// Validation itself is performed by the server; Validator is passed through verbatim.
//
// Example:
//
//	userSchema := mongos.Schema{
//	    Validator: bson.M{"$jsonSchema": bson.M{
//	        "bsonType": "object",
//	        "properties": bson.M{
//	            "username": bson.M{"bsonType": "string"},
//	            "avatar":   bson.M{"bsonType": "string"},
//	        },
//	    }},
//	    Indexes: []mongo.IndexModel{{Keys: bson.D{{Key: "username", Value: 1}}}},
//	}
type Schema struct {
	// Collection overrides the collection name derived from the model name.
	Collection string
	Validator  bson.M
	Indexes    []mongo.IndexModel
}

// Model is a schema-bound accessor registered on a Connection.
type Model struct {
	name       string
	collection string
	schema     Schema
	conn       *Connection
}

// Name returns the name the model was registered under.
func (m *Model) Name() string { return m.name }

// CollectionName returns the collection the model reads and writes.
func (m *Model) CollectionName() string { return m.collection }

// Schema returns the schema the model was registered with.
func (m *Model) Schema() Schema {
	s := m.schema
	s.Indexes = append([]mongo.IndexModel(nil), m.schema.Indexes...)
	return s
}

// Connection returns the handle the model is registered on.
func (m *Model) Connection() *Connection { return m.conn }

// Collection returns the driver collection for this model.
// Returns ErrNotConnected unless the connection is established.
func (m *Model) Collection() (*mongo.Collection, error) {
	db, err := m.conn.Database()
	if err != nil {
		return nil, err
	}
	return db.Collection(m.collection), nil
}

// Sync creates the model's collection with its validator and creates its
// indexes. An existing collection has its validator replaced.
func (m *Model) Sync(ctx context.Context) error {
	db, err := m.conn.Database()
	if err != nil {
		return err
	}

	opts := options.CreateCollection()
	if m.schema.Validator != nil {
		opts.SetValidator(m.schema.Validator)
	}

	if err := db.CreateCollection(ctx, m.collection, opts); err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != codeNamespaceExists {
			return WithContext(err, map[string]interface{}{
				"model":      m.name,
				"collection": m.collection,
			})
		}
		if m.schema.Validator != nil {
			cmd := bson.D{{Key: "collMod", Value: m.collection}, {Key: "validator", Value: m.schema.Validator}}
			if err := db.RunCommand(ctx, cmd).Err(); err != nil {
				return WithContext(err, map[string]interface{}{
					"model":      m.name,
					"collection": m.collection,
				})
			}
		}
	}

	if len(m.schema.Indexes) > 0 {
		if _, err := db.Collection(m.collection).Indexes().CreateMany(ctx, m.schema.Indexes); err != nil {
			return WithContext(err, map[string]interface{}{
				"model":      m.name,
				"collection": m.collection,
			})
		}
	}

	m.conn.logger.Debug("model synced",
		"connection", m.conn.id,
		"model", m.name,
		"collection", m.collection,
		"indexes", len(m.schema.Indexes),
	)
	return nil
}

// Model registers a schema-bound model under name and returns it.
// Registration does not require a live connection.
func (c *Connection) Model(name string, schema Schema) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, WithContext(ErrInvalidModel, map[string]interface{}{
			"reason": "name must not be empty",
		})
	}

	collection := schema.Collection
	if collection == "" {
		collection = pluralize(name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.models[name]; exists {
		return nil, WithContext(ErrModelExists, map[string]interface{}{
			"model": name,
		})
	}

	schema.Indexes = append([]mongo.IndexModel(nil), schema.Indexes...)
	m := &Model{
		name:       name,
		collection: collection,
		schema:     schema,
		conn:       c,
	}
	c.models[name] = m
	c.metrics.Gauge(MetricModelsRegistered, float64(len(c.models)), "database", c.cfg.Database)

	return m, nil
}

// LookupModel returns the model registered under name.
func (c *Connection) LookupModel(name string) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[name]
	return m, ok
}

// Models returns a snapshot of the registry.
// It holds exactly the models registered through Model.
func (c *Connection) Models() map[string]*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*Model, len(c.models))
	for name, m := range c.models {
		out[name] = m
	}
	return out
}

// DeleteModel removes a model from the registry, reporting whether it was present.
// The collection itself is untouched.
func (c *Connection) DeleteModel(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.models[name]; !ok {
		return false
	}
	delete(c.models, name)
	c.metrics.Gauge(MetricModelsRegistered, float64(len(c.models)), "database", c.cfg.Database)
	return true
}

// pluralize derives a collection name from a model name (User -> users).
func pluralize(s string) string {
	lower := strings.ToLower(s)

	irregulars := map[string]string{
		"person": "people",
		"child":  "children",
		"goose":  "geese",
		"tooth":  "teeth",
		"foot":   "feet",
		"mouse":  "mice",
	}

	if plural, ok := irregulars[lower]; ok {
		return plural
	}

	// Words ending in 'y' (preceded by consonant) -> 'ies'
	if len(lower) > 1 && lower[len(lower)-1] == 'y' {
		if !isVowel(rune(lower[len(lower)-2])) {
			return lower[:len(lower)-1] + "ies"
		}
	}

	if strings.HasSuffix(lower, "s") || strings.HasSuffix(lower, "x") ||
		strings.HasSuffix(lower, "z") || strings.HasSuffix(lower, "ch") ||
		strings.HasSuffix(lower, "sh") {
		return lower + "es"
	}

	return lower + "s"
}

func isVowel(r rune) bool {
	return r == 'a' || r == 'e' || r == 'i' || r == 'o' || r == 'u'
}
