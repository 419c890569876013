// Package repository persists the console's own records.
package repository

import (
	"context"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"gorm.io/gorm"
)

// AuditRepository stores and pages through moderation audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error)
	Count(ctx context.Context) (int64, error)
}

type auditRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAuditRepository returns a GORM-backed AuditRepository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{
		db:  db,
		log: observability.NewRepoLogger(models.AuditEntry{}.TableName()),
	}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	span, ctx := observability.StartRepositorySpan(ctx, "Create", models.AuditEntry{}.TableName())
	defer span.End()
	defer observability.TrackQuery("create", models.AuditEntry{}.TableName())()

	if entry.CorrelationID == "" {
		entry.CorrelationID = observability.ExtractCorrelationID(ctx)
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{
		"action":         entry.Action,
		"target_user_id": entry.TargetUserID,
		"outcome":        entry.Outcome,
	})
	return nil
}

// List returns entries newest first.
func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	span, ctx := observability.StartRepositorySpan(ctx, "List", models.AuditEntry{}.TableName())
	defer span.End()
	defer observability.TrackQuery("list", models.AuditEntry{}.TableName())()

	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "list")
		return nil, err
	}
	return entries, nil
}

func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	defer observability.TrackQuery("count", models.AuditEntry{}.TableName())()

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Count(&n).Error; err != nil {
		r.log.LogError(ctx, err, "count")
		return 0, err
	}
	return n, nil
}
