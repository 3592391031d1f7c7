package storage

import (
	"errors"
	"fmt"

	"github.com/fieldops/geotrack/cli/tracker/storage/store/mysql"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/nats"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/nsq"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/postgresql"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/rabbitmq"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/redis"
	"github.com/fieldops/geotrack/cli/tracker/storage/store/tarantool_queue"
)

var ErrInvalidStorage = errors.New("storage not found")
var ErrUnknownStorage = errors.New("storage isn't supported")

// Sink receives serialized records. Connectors implement Sink so they never
// depend on the record types; the repository serializes exactly once.
type Sink interface {
	// Save persists one serialized record. Kind routes the record inside
	// the storage (table, subject, routing key); key is the technician ID.
	Save(kind, key string, payload []byte) error
}

// Store is a full connector: lifecycle plus persistence.
type Store interface {
	Sink

	// Init opens the connection using the storage section of the config.
	Init(map[string]string) error

	// Close closes the connection.
	Close() error
}

// Repository fans records out to every configured storage.
type Repository struct {
	storages []Sink
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{}
}

// AddStore registers a storage for record fan-out.
func (r *Repository) AddStore(s Sink) {
	r.storages = append(r.storages, s)
}

// Save serializes the record once and writes it to all registered
// storages, stopping at the first failure.
func (r *Repository) Save(rec Record) error {
	payload, err := rec.ToBytes()
	if err != nil {
		return fmt.Errorf("cannot serialize %s record: %v", rec.Kind(), err)
	}

	for _, store := range r.storages {
		if err := store.Save(rec.Kind(), rec.Key(), payload); err != nil {
			return err
		}
	}
	return nil
}

// LoadStorages instantiates and connects the storages named in the config.
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	var db Store
	for store, params := range storages {
		switch store {
		case "postgresql":
			db = &postgresql.Connector{}
		case "mysql":
			db = &mysql.Connector{}
		case "redis":
			db = &redis.Connector{}
		case "nats":
			db = &nats.Connector{}
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "nsq":
			db = &nsq.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		default:
			return ErrUnknownStorage
		}

		if err := db.Init(params); err != nil {
			return err
		}

		r.AddStore(db)
	}
	return nil
}

// Close closes every connector that manages a connection.
func (r *Repository) Close() error {
	var firstErr error
	for _, s := range r.storages {
		if c, ok := s.(Store); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
