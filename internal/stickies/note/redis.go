package note

import (
	"context"
	"strconv"
	"time"

	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the durable Store backend. Each note lives in a hash under
// stickies:note:<id>; a per-board zset scored by created_at indexes the ids
// for the snapshot query.
type RedisStore struct {
	client *redis.Client
	board  string
	logger *logx.Logger
}

// NewRedisStore creates a redis-backed note store for one board.
func NewRedisStore(client *redis.Client, board string, logger *logx.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		board:  board,
		logger: logger,
	}
}

func (s *RedisStore) noteKey(id string) string { return "stickies:note:" + id }

func (s *RedisStore) boardKey() string { return "stickies:board:" + s.board }

func (s *RedisStore) IsAvailable() bool {
	return s.client != nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) HealthCheck(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"available": s.IsAvailable(),
		"type":      "redis_note_store",
		"board":     s.board,
	}
	if count, err := s.client.ZCard(ctx, s.boardKey()).Result(); err == nil {
		status["notes"] = count
	}
	return status
}

func (s *RedisStore) Insert(ctx context.Context, n Note) error {
	// The id field doubles as the existence marker; HSetNX rejects a
	// second insert of the same id.
	created, err := s.client.HSetNX(ctx, s.noteKey(n.ID), "id", n.ID).Result()
	if err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	if !created {
		return &StoreError{Op: "insert", Err: ErrDuplicateID}
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.noteKey(n.ID),
		"content", n.Content,
		"x", formatFloat(n.X),
		"y", formatFloat(n.Y),
		"color", n.Color,
		"author", n.Author,
		"created_at", n.CreatedAt.Format(time.RFC3339Nano),
		"updated_at", n.UpdatedAt.Format(time.RFC3339Nano),
	)
	pipe.ZAdd(ctx, s.boardKey(), redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: n.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	return nil
}

func (s *RedisStore) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	exists, err := s.client.Exists(ctx, s.noteKey(id)).Result()
	if err != nil {
		return &StoreError{Op: "update_content", Err: err}
	}
	if exists == 0 {
		return nil
	}

	err = s.client.HSet(ctx, s.noteKey(id),
		"content", content,
		"updated_at", updatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return &StoreError{Op: "update_content", Err: err}
	}
	return nil
}

func (s *RedisStore) UpdatePosition(ctx context.Context, id string, x, y float64, updatedAt time.Time) error {
	exists, err := s.client.Exists(ctx, s.noteKey(id)).Result()
	if err != nil {
		return &StoreError{Op: "update_position", Err: err}
	}
	if exists == 0 {
		return nil
	}

	err = s.client.HSet(ctx, s.noteKey(id),
		"x", formatFloat(x),
		"y", formatFloat(y),
		"updated_at", updatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return &StoreError{Op: "update_position", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.noteKey(id))
	pipe.ZRem(ctx, s.boardKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]Note, error) {
	ids, err := s.client.ZRange(ctx, s.boardKey(), 0, -1).Result()
	if err != nil {
		return nil, &StoreError{Op: "list_all", Err: err}
	}

	notes := make([]Note, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, s.noteKey(id)).Result()
		if err != nil {
			return nil, &StoreError{Op: "list_all", Err: err}
		}
		if len(fields) == 0 {
			// note deleted between ZRange and HGetAll
			continue
		}
		n, err := noteFromHash(fields)
		if err != nil {
			s.logger.Warn(ctx, "skipping corrupt note record",
				logx.KV("id", id), logx.KV("error", err))
			continue
		}
		notes = append(notes, n)
	}

	SortSnapshot(notes)
	return notes, nil
}

func noteFromHash(fields map[string]string) (Note, error) {
	x, err := strconv.ParseFloat(fields["x"], 64)
	if err != nil {
		return Note{}, err
	}
	y, err := strconv.ParseFloat(fields["y"], 64)
	if err != nil {
		return Note{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return Note{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return Note{}, err
	}

	return Note{
		ID:        fields["id"],
		Content:   fields["content"],
		X:         x,
		Y:         y,
		Color:     fields["color"],
		Author:    fields["author"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
