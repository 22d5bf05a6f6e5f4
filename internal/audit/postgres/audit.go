package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/filevault/filevault/internal/audit"
	auditDatamodel "github.com/filevault/filevault/internal/core/datamodel/audit"
)

// AuditRepository implements audit.RepositoryAPI using GORM. It only ever
// inserts and selects; the table has no update or delete path.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, rec *audit.Record) error {
	row := &auditDatamodel.AuditRecord{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Action:    string(rec.Action),
		FileID:    rec.FileID,
		IPAddress: rec.IPAddress,
		CreatedAt: rec.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

type auditRow struct {
	auditDatamodel.AuditRecord
	ActorName  *string
	ActorEmail *string
	FileName   *string
}

func (r *AuditRepository) ListNewestFirst(ctx context.Context) ([]*audit.Record, error) {
	var rows []auditRow

	// Left joins so records referencing deleted users or files still list.
	err := r.db.WithContext(ctx).
		Table("audit_records").
		Select("audit_records.*, users.name AS actor_name, users.email AS actor_email, files.original_name AS file_name").
		Joins("LEFT JOIN users ON users.id = audit_records.user_id").
		Joins("LEFT JOIN files ON files.id = audit_records.file_id").
		Order("audit_records.created_at DESC, audit_records.seq DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]*audit.Record, len(rows))
	for i, row := range rows {
		rec := &audit.Record{
			ID:        row.ID,
			UserID:    row.UserID,
			Action:    audit.Action(row.Action),
			FileID:    row.FileID,
			IPAddress: row.IPAddress,
			CreatedAt: row.CreatedAt,
			FileName:  row.FileName,
		}
		if row.ActorName != nil {
			rec.ActorName = *row.ActorName
		}
		if row.ActorEmail != nil {
			rec.ActorEmail = *row.ActorEmail
		}
		records[i] = rec
	}
	return records, nil
}
