package redis

/*
Settings that may (not must) appear in the storage section of the config:

host = "localhost"
port = "6379"
password = ""
db = "0"
key_prefix = "geotrack"
history_len = "500"

Each record is written twice: the latest record per technician and kind is
kept under a plain key for fast lookups, and the record is pushed onto a
capped per-technician list for recent history.
*/

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const defaultHistoryLen = 500

type Connector struct {
	connection *redis.Client
	config     map[string]string
	prefix     string
	historyLen int64
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid config reference")
	}
	c.config = cfg

	db := 0
	if cfg["db"] != "" {
		var err error
		if db, err = strconv.Atoi(cfg["db"]); err != nil {
			return fmt.Errorf("failed to parse db: %v", err)
		}
	}

	c.prefix = cfg["key_prefix"]
	if c.prefix == "" {
		c.prefix = "geotrack"
	}

	c.historyLen = defaultHistoryLen
	if cfg["history_len"] != "" {
		n, err := strconv.Atoi(cfg["history_len"])
		if err != nil {
			return fmt.Errorf("failed to parse history_len: %v", err)
		}
		c.historyLen = int64(n)
	}

	c.connection = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg["host"], cfg["port"]),
		Password: cfg["password"],
		DB:       db,
	})

	if err := c.connection.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis is unreachable: %v", err)
	}
	return nil
}

func (c *Connector) Save(kind, key string, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("invalid record reference")
	}

	ctx := context.Background()
	latestKey := fmt.Sprintf("%s:%s:latest:%s", c.prefix, kind, key)
	historyKey := fmt.Sprintf("%s:%s:history:%s", c.prefix, kind, key)

	pipe := c.connection.TxPipeline()
	pipe.Set(ctx, latestKey, payload, 0)
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, c.historyLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
