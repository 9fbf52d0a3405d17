package redishost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fr0gg/fr0gg/gallery"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for the Redis-backed store. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: GALLERY_KEY_PREFIX
	KeyPrefix string `env:"GALLERY_KEY_PREFIX,default=fr0gg:gallery:"`
}

// Host is a gallery.Store backed by Redis.
type Host struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

var _ gallery.Store = (*Host)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Host, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "fr0gg:gallery:"
	}
	return &Host{client: cl, keyPrefix: prefix, now: time.Now}, nil
}

// ConfigFromEnv decodes Config from the environment, applying tag defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode redis config: %w", err)
	}
	return cfg, nil
}

// NewFromEnv builds a Host using envdecode to populate Config.
func NewFromEnv(ctx context.Context) (*Host, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// Close closes the Redis client.
func (h *Host) Close() error { return h.client.Close() }

func (h *Host) entryKey(id string) string { return h.keyPrefix + "entry:" + id }
func (h *Host) indexKey() string          { return h.keyPrefix + "entries" }
func (h *Host) seqKey() string            { return h.keyPrefix + "seq" }

var addScript = redis.NewScript(`
local entry = KEYS[1]
local seq = KEYS[2]
local index = KEYS[3]
if redis.call('EXISTS', entry) == 1 then
  return 0
end
local n = redis.call('INCR', seq)
redis.call('SET', entry, ARGV[1])
redis.call('ZADD', index, n, ARGV[2])
return n
`)

func (h *Host) Add(ctx context.Context, e gallery.Entry) (gallery.Entry, error) {
	e, err := gallery.Prepare(e, h.now())
	if err != nil {
		return gallery.Entry{}, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return gallery.Entry{}, fmt.Errorf("encode entry: %w", err)
	}
	keys := []string{h.entryKey(e.ID), h.seqKey(), h.indexKey()}
	n, err := addScript.Run(ctx, h.client, keys, data, e.ID).Int64()
	if err != nil {
		return gallery.Entry{}, fmt.Errorf("add entry: %w", err)
	}
	if n == 0 {
		return gallery.Entry{}, fmt.Errorf("%w: %s", gallery.ErrConflict, e.ID)
	}
	return e, nil
}

func (h *Host) Get(ctx context.Context, id string) (gallery.Entry, error) {
	data, err := h.client.Get(ctx, h.entryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gallery.Entry{}, fmt.Errorf("%w: %s", gallery.ErrNotFound, id)
		}
		return gallery.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	var e gallery.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return gallery.Entry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return e, nil
}

func (h *Host) List(ctx context.Context, opts gallery.ListOptions) (gallery.Page, error) {
	limit, before, err := opts.Resolve()
	if err != nil {
		return gallery.Page{}, err
	}
	max := "+inf"
	if before > 0 {
		max = "(" + strconv.FormatUint(before, 10)
	}
	// One extra row tells us whether another page exists.
	rows, err := h.client.ZRevRangeByScoreWithScores(ctx, h.indexKey(), &redis.ZRangeBy{
		Max:   max,
		Min:   "-inf",
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return gallery.Page{}, fmt.Errorf("list index: %w", err)
	}

	page := gallery.Page{Entries: []gallery.Entry{}}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = gallery.EncodeCursor(uint64(rows[limit-1].Score))
	}
	if len(rows) == 0 {
		return page, nil
	}

	keys := make([]string, len(rows))
	for i, z := range rows {
		keys[i] = h.entryKey(z.Member.(string))
	}
	vals, err := h.client.MGet(ctx, keys...).Result()
	if err != nil {
		return gallery.Page{}, fmt.Errorf("load entries: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Indexed but missing; skip rather than fail the page.
			continue
		}
		var e gallery.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return gallery.Page{}, fmt.Errorf("decode entry %s: %w", keys[i], err)
		}
		page.Entries = append(page.Entries, e)
	}
	return page, nil
}
