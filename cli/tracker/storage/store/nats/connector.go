package nats

/*
Settings that may (not must) appear in the storage section of the config:

address = "nats://localhost:4222"
subject = "geotrack"

Records are published to <subject>.<kind>.<technician_id> so consumers can
subscribe to a single record kind or a single technician with a wildcard.
*/

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

type Connector struct {
	connection *nats.Conn
	config     map[string]string
	subject    string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid config reference")
	}
	c.config = cfg

	c.subject = cfg["subject"]
	if c.subject == "" {
		c.subject = "geotrack"
	}

	if c.connection, err = nats.Connect(cfg["address"]); err != nil {
		return fmt.Errorf("NATS connection error: %v", err)
	}
	return err
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	subject := fmt.Sprintf("%s.%s.%s", c.subject, kind, key)
	if err := c.connection.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
