package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"weather-widget/internal/models"
)

const redisKeyPrefix = "weather-widget:session:"

// Each script returns -1 when the session key does not exist.
var (
	issueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local seq = redis.call('HINCRBY', KEYS[1], 'issued', 1)
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return seq
`)

	commitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local issued = tonumber(redis.call('HGET', KEYS[1], 'issued') or '0')
if issued ~= tonumber(ARGV[1]) then return 0 end
redis.call('HSET', KEYS[1], 'applied', ARGV[1], 'model', ARGV[2], 'updated', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

	unitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local v = ARGV[1]
if v == 'toggle' then
  if redis.call('HGET', KEYS[1], 'celsius') == '1' then v = '0' else v = '1' end
end
redis.call('HSET', KEYS[1], 'celsius', v)
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)
)

// RedisStore keeps one hash per session so several widget instances can share state.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) ttlMillis() int64 { return s.ttl.Milliseconds() }

func (s *RedisStore) Create(ctx context.Context, id string) (State, error) {
	now := time.Now()
	key := s.key(id)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "celsius", "1", "issued", 0, "applied", 0, "updated", now.Unix())
		p.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("redis create session: %w", err)
	}
	return State{ID: id, UseCelsius: true, UpdatedAt: time.Unix(now.Unix(), 0)}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (State, error) {
	key := s.key(id)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return State{}, fmt.Errorf("redis get session: %w", err)
	}
	if len(fields) == 0 {
		return State{}, ErrSessionNotFound
	}
	if err := s.rdb.PExpire(ctx, key, s.ttl).Err(); err != nil {
		return State{}, fmt.Errorf("redis touch session: %w", err)
	}
	return decodeState(id, fields)
}

func decodeState(id string, fields map[string]string) (State, error) {
	st := State{ID: id, UseCelsius: fields["celsius"] == "1"}
	var err error
	if st.Issued, err = parseUint(fields["issued"]); err != nil {
		return State{}, fmt.Errorf("session %s: issued: %w", id, err)
	}
	if st.Applied, err = parseUint(fields["applied"]); err != nil {
		return State{}, fmt.Errorf("session %s: applied: %w", id, err)
	}
	if v := fields["updated"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("session %s: updated: %w", id, err)
		}
		st.UpdatedAt = time.Unix(sec, 0)
	}
	if raw := fields["model"]; raw != "" {
		var m models.DisplayModel
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return State{}, fmt.Errorf("session %s: model: %w", id, err)
		}
		st.Model = &m
	}
	return st, nil
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func (s *RedisStore) Issue(ctx context.Context, id string) (uint64, error) {
	n, err := issueScript.Run(ctx, s.rdb, []string{s.key(id)}, s.ttlMillis()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis issue sequence: %w", err)
	}
	if n < 0 {
		return 0, ErrSessionNotFound
	}
	return uint64(n), nil
}

func (s *RedisStore) Commit(ctx context.Context, id string, seq uint64, model models.DisplayModel) (bool, error) {
	b, err := json.Marshal(model)
	if err != nil {
		return false, err
	}
	n, err := commitScript.Run(ctx, s.rdb, []string{s.key(id)},
		seq, string(b), time.Now().Unix(), s.ttlMillis()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis commit model: %w", err)
	}
	if n < 0 {
		return false, ErrSessionNotFound
	}
	return n == 1, nil
}

func (s *RedisStore) setUnit(ctx context.Context, id, value string) (State, error) {
	n, err := unitScript.Run(ctx, s.rdb, []string{s.key(id)}, value, s.ttlMillis()).Int64()
	if err != nil {
		return State{}, fmt.Errorf("redis set unit: %w", err)
	}
	if n < 0 {
		return State{}, ErrSessionNotFound
	}
	return s.Get(ctx, id)
}

func (s *RedisStore) SetUnit(ctx context.Context, id string, useCelsius bool) (State, error) {
	v := "0"
	if useCelsius {
		v = "1"
	}
	return s.setUnit(ctx, id, v)
}

func (s *RedisStore) ToggleUnit(ctx context.Context, id string) (State, error) {
	return s.setUnit(ctx, id, "toggle")
}
