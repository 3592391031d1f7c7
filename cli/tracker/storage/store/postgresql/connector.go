package postgresql

/*
Settings that may (not must) appear in the storage section of the config:

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "tracker"
table = "location_event"
sslmode = "disable"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection *sql.DB
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid config reference")
	}
	c.config = cfg
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("PostgreSQL connection error: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL is unreachable: %v", err)
	}
	return err
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	table := c.config["table"]
	if table == "" {
		log.Warn("Key 'table' not found in the storage config. Using default 'location_event'.")
		table = "location_event"
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (kind, technician_id, payload) VALUES ($1, $2, $3)", table)
	if _, err := c.connection.Exec(insertQuery, kind, key, payload); err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
