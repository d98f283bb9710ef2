package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

type mockLister struct {
	ids []uuid.UUID
	err error
}

func (m *mockLister) ListIDs(context.Context) ([]uuid.UUID, error) {
	return m.ids, m.err
}

type mockSyncer struct {
	synced []uuid.UUID
	errFor map[uuid.UUID]error
}

func (m *mockSyncer) Sync(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.synced = append(m.synced, id)
	if err, ok := m.errFor[id]; ok {
		return nil, err
	}
	return &models.Profile{ID: id}, nil
}

func TestSweepVisitsEveryAccount(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	syncer := &mockSyncer{}
	w := NewSettleSweepWorker(&mockLister{ids: ids}, syncer, nil)

	if err := w.Work(context.Background(), &river.Job[SettleSweepArgs]{}); err != nil {
		t.Fatalf("Work failed: %v", err)
	}
	if len(syncer.synced) != len(ids) {
		t.Errorf("synced %d accounts, want %d", len(syncer.synced), len(ids))
	}
}

func TestSweepContinuesPastFailedAccounts(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	syncer := &mockSyncer{errFor: map[uuid.UUID]error{
		ids[0]: errors.New("boom"),
		ids[1]: store.ErrConflict, // concurrent writer, not a failure
	}}
	w := NewSettleSweepWorker(&mockLister{ids: ids}, syncer, nil)

	if err := w.Work(context.Background(), &river.Job[SettleSweepArgs]{}); err != nil {
		t.Fatalf("Work failed: %v", err)
	}
	if len(syncer.synced) != len(ids) {
		t.Errorf("synced %d accounts, want all %d despite errors", len(syncer.synced), len(ids))
	}
}

func TestSweepSurfacesListError(t *testing.T) {
	wantErr := errors.New("db down")
	w := NewSettleSweepWorker(&mockLister{err: wantErr}, &mockSyncer{}, nil)

	if err := w.Work(context.Background(), &river.Job[SettleSweepArgs]{}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
