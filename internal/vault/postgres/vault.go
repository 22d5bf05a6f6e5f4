package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	fileDatamodel "github.com/filevault/filevault/internal/core/datamodel/file"
	grantDatamodel "github.com/filevault/filevault/internal/core/datamodel/grant"
	"github.com/filevault/filevault/internal/vault"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// fileRow carries a file plus its resolved owner for list and detail views.
type fileRow struct {
	fileDatamodel.File
	OwnerName  string
	OwnerEmail string
}

const fileSelect = "files.*, users.name AS owner_name, users.email AS owner_email"

func (r *FileRepository) Create(ctx context.Context, f *vault.File) error {
	return r.db.WithContext(ctx).Create(vault.ToFileDataModel(f)).Error
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*vault.File, error) {
	var row fileRow
	err := r.db.WithContext(ctx).
		Table("files").
		Select(fileSelect).
		Joins("JOIN users ON users.id = files.owner_id").
		Where("files.id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vault.ErrFileNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

// ListAccessible returns files the user owns plus files any grant admits
// them to, newest first. Level does not matter here: a READ grant is enough
// to see the metadata.
func (r *FileRepository) ListAccessible(ctx context.Context, userID string) ([]*vault.File, error) {
	var rows []fileRow
	err := r.db.WithContext(ctx).
		Table("files").
		Select(fileSelect).
		Joins("JOIN users ON users.id = files.owner_id").
		Where("files.owner_id = ? OR files.id IN (?)", userID,
			r.db.Table("grants").Select("file_id").Where("grantee_id = ?", userID)).
		Order("files.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *FileRepository) ListAll(ctx context.Context) ([]*vault.File, error) {
	var rows []fileRow
	err := r.db.WithContext(ctx).
		Table("files").
		Select(fileSelect).
		Joins("JOIN users ON users.id = files.owner_id").
		Order("files.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// Delete is a single conditional statement; the affected-row count decides
// which of two racing deletes actually removed the file. Grants on the file
// go with it via the schema's ON DELETE CASCADE.
func (r *FileRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&fileDatamodel.File{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func toDomain(row *fileRow) *vault.File {
	f := vault.FromFileDataModel(&row.File)
	f.Owner = &vault.OwnerInfo{
		ID:    row.OwnerID,
		Name:  row.OwnerName,
		Email: row.OwnerEmail,
	}
	return f
}

func toDomainList(rows []fileRow) []*vault.File {
	files := make([]*vault.File, 0, len(rows))
	for i := range rows {
		files = append(files, toDomain(&rows[i]))
	}
	return files
}

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) Get(ctx context.Context, fileID, granteeID string) (*vault.Grant, error) {
	var row grantDatamodel.Grant
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND grantee_id = ?", fileID, granteeID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return vault.FromGrantDataModel(&row), nil
}

// Upsert relies on the unique (file_id, grantee_id) index: insert, or on
// conflict replace the level in place. One statement, so concurrent shares
// for the same pair never produce two rows.
func (r *GrantRepository) Upsert(ctx context.Context, g *vault.Grant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "file_id"}, {Name: "grantee_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"level":      g.Level,
				"updated_at": time.Now(),
			}),
		}).
		Create(vault.ToGrantDataModel(g)).Error
}
