package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStatus keeps job progress in Redis so polling survives restarts.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
}

func NewRedisStatus(redisURL string) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStatus{client: c, keyNS: "job"}, nil
}

func (s *RedisStatus) key(jobID string) string {
	return fmt.Sprintf("%s:%s:status", s.keyNS, jobID)
}

func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
	m := map[string]interface{}{
		"status":  st.Status,
		"done":    st.Done,
		"total":   st.Total,
		"message": st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Items != nil {
		b, _ := json.Marshal(st.Items)
		m["items"] = string(b)
	}
	if err := s.client.HSet(ctx, s.key(jobID), m).Err(); err != nil {
		return err
	}
	// Jobs are transient; keep them around for a week at most.
	return s.client.Expire(ctx, s.key(jobID), 7*24*time.Hour).Err()
}

func (s *RedisStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{}
	st.Status = res["status"]
	st.Message = res["message"]
	if v, ok := res["done"]; ok && v != "" {
		var n int
		fmt.Sscan(v, &n)
		st.Done = n
	}
	if v, ok := res["total"]; ok && v != "" {
		var n int
		fmt.Sscan(v, &n)
		st.Total = n
	}
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["items"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Items)
	}
	return st, true, nil
}

func (s *RedisStatus) Close() error { return s.client.Close() }

// Client returns the underlying Redis client (health checks).
func (s *RedisStatus) Client() *redis.Client { return s.client }
