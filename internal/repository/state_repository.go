package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

// ErrStoreClosed signals that the state store backend is gone. The polling
// scheduler treats it as environment detachment and stops itself cleanly.
var ErrStoreClosed = errors.New("state store closed")

// StateRepository is the whole-value key-value contract for the monitor's
// persisted state: the snapshot table and the bounded disposition log. The
// backend offers only whole-document get/set, so every Update* re-fetches
// the latest value immediately before applying the mutation; concurrent
// unrelated updates are not lost as long as mutations go through Update*.
type StateRepository interface {
	GetSnapshots(ctx context.Context) (map[string]domain.Snapshot, error)
	UpdateSnapshots(ctx context.Context, mutate func(map[string]domain.Snapshot)) error
	GetDispositions(ctx context.Context) ([]domain.DispositionRecord, error)
	UpdateDispositions(ctx context.Context, mutate func([]domain.DispositionRecord) []domain.DispositionRecord) error
}
