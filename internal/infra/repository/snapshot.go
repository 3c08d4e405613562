package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/golden-fork/bistro/internal/domain"
	"github.com/golden-fork/bistro/internal/infra/database/models"
)

// SnapshotRepository stores the last good payload per query so content
// can still be served while the backend is down.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Store(ctx context.Context, key string, payload json.RawMessage) error {
	snapshot := models.Snapshot{
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
}

func (r *SnapshotRepository) Load(ctx context.Context, key string) (json.RawMessage, time.Time, error) {
	var snapshot models.Snapshot
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		Take(&snapshot).Error
	if err != nil {
		return nil, time.Time{}, domain.NotFoundError{Resource: "snapshot"}
	}

	return json.RawMessage(snapshot.Payload), snapshot.UpdatedAt, nil
}
