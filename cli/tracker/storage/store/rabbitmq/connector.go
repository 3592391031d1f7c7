package rabbitmq

/*
Settings that may (not must) appear in the storage section of the config:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "geotrack"

Records are published to a topic exchange with routing key <kind>.<technician_id>.
*/

import (
	"fmt"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	config     map[string]string
	exchange   string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid config reference")
	}
	c.config = cfg

	c.exchange = cfg["exchange"]
	if c.exchange == "" {
		c.exchange = "geotrack"
	}

	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"])
	if c.connection, err = amqp.Dial(connStr); err != nil {
		return fmt.Errorf("RabbitMQ connection error: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("failed to open a channel: %v", err)
	}

	if err = c.channel.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare an exchange: %v", err)
	}
	return err
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	routingKey := fmt.Sprintf("%s.%s", kind, key)
	err := c.channel.Publish(c.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.connection.Close()
}
