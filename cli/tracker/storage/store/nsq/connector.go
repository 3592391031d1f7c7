package nsq

/*
Settings that may (not must) appear in the storage section of the config:

address = "localhost:4150"
topic = "geotrack"

Records of every kind go to a single topic; the kind travels inside the
serialized payload.
*/

import (
	"fmt"

	gonsq "github.com/nsqio/go-nsq"
)

type Connector struct {
	producer *gonsq.Producer
	config   map[string]string
	topic    string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid config reference")
	}
	c.config = cfg

	c.topic = cfg["topic"]
	if c.topic == "" {
		c.topic = "geotrack"
	}

	if c.producer, err = gonsq.NewProducer(cfg["address"], gonsq.NewConfig()); err != nil {
		return fmt.Errorf("NSQ producer error: %v", err)
	}

	if err = c.producer.Ping(); err != nil {
		return fmt.Errorf("NSQ is unreachable: %v", err)
	}
	return err
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	if err := c.producer.Publish(c.topic, payload); err != nil {
		return fmt.Errorf("failed to publish record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.producer.Stop()
	return nil
}
