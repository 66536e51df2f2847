package redis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Values are msgpack encoded.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Presence operations

func (s *Storage) SavePresence(ctx context.Context, rec model.PresenceRecord) error {
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, presenceKey(rec.UserID), data, s.cfg.PresenceTTL).Err()
}

func (s *Storage) GetPresence(ctx context.Context, userID model.UserID) (*model.PresenceRecord, error) {
	data, err := s.client.Get(ctx, presenceKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPresenceNotFound
		}
		return nil, err
	}

	var rec model.PresenceRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Room summary operations

func (s *Storage) SaveRoomSummary(ctx context.Context, summary model.RoomSummary) error {
	data, err := msgpack.Marshal(&summary)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(summary.Code), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomIndexKey(), string(summary.Code))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoomSummary(ctx context.Context, code model.RoomCode) (*model.RoomSummary, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomSummaryNotFound
		}
		return nil, err
	}

	var summary model.RoomSummary
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Storage) DeleteRoomSummary(ctx context.Context, code model.RoomCode) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(code))
	pipe.SRem(ctx, roomIndexKey(), string(code))
	_, err := pipe.Exec(ctx)
	return err
}

// ListRoomCodes returns indexed rooms whose summary has not expired.
// Expired members are pruned from the index as a side effect.
func (s *Storage) ListRoomCodes(ctx context.Context) ([]model.RoomCode, error) {
	members, err := s.client.SMembers(ctx, roomIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []model.RoomCode{}, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		exists[i] = pipe.Exists(ctx, roomKey(model.RoomCode(m)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	codes := make([]model.RoomCode, 0, len(members))
	var stale []any
	for i, m := range members {
		if exists[i].Val() > 0 {
			codes = append(codes, model.RoomCode(m))
		} else {
			stale = append(stale, m)
		}
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, roomIndexKey(), stale...).Err(); err != nil {
			return nil, err
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
