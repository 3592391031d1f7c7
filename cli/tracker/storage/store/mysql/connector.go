package mysql

/*
Settings that may (not must) appear in the storage section of the config:

host = "localhost"
port = "3306"
user = "root"
password = "root"
database = "tracker"
table = "location_event"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
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
	connStr := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"], c.config["database"])
	if c.connection, err = sql.Open("mysql", connStr); err != nil {
		return fmt.Errorf("MySQL connection error: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL is unreachable: %v", err)
	}
	return err
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	table := c.config["table"]
	if table == "" {
		table = "location_event"
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (kind, technician_id, payload) VALUES (?, ?, ?)", table)
	if _, err := c.connection.Exec(insertQuery, kind, key, payload); err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
