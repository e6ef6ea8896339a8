package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

const (
	snapshotsKey    = "tat:snapshots"
	dispositionsKey = "tat:dispositions"
)

type redisStateRepository struct {
	client *redis.Client
}

// NewRedisStateRepository wires the state store onto a redis client.
func NewRedisStateRepository(client *redis.Client) StateRepository {
	return &redisStateRepository{client: client}
}

func (r *redisStateRepository) GetSnapshots(ctx context.Context) (map[string]domain.Snapshot, error) {
	snapshots := make(map[string]domain.Snapshot)
	if err := r.getJSON(ctx, snapshotsKey, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *redisStateRepository) UpdateSnapshots(ctx context.Context, mutate func(map[string]domain.Snapshot)) error {
	// Re-fetch immediately before merging; the backend has no partial
	// update, so this read-modify-write is the whole concurrency story.
	snapshots, err := r.GetSnapshots(ctx)
	if err != nil {
		return err
	}
	mutate(snapshots)
	return r.setJSON(ctx, snapshotsKey, snapshots)
}

func (r *redisStateRepository) GetDispositions(ctx context.Context) ([]domain.DispositionRecord, error) {
	records := []domain.DispositionRecord{}
	if err := r.getJSON(ctx, dispositionsKey, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *redisStateRepository) UpdateDispositions(ctx context.Context, mutate func([]domain.DispositionRecord) []domain.DispositionRecord) error {
	records, err := r.GetDispositions(ctx)
	if err != nil {
		return err
	}
	records = mutate(records)
	return r.setJSON(ctx, dispositionsKey, records)
}

func (r *redisStateRepository) getJSON(ctx context.Context, key string, out any) error {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return mapStoreErr(err)
	}
	return json.Unmarshal(payload, out)
}

func (r *redisStateRepository) setJSON(ctx context.Context, key string, val any) error {
	payload, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrStoreClosed
	}
	return err
}
