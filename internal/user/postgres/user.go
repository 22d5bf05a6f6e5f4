package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filevault/filevault/internal/auth"
	fileDatamodel "github.com/filevault/filevault/internal/core/datamodel/file"
	grantDatamodel "github.com/filevault/filevault/internal/core/datamodel/grant"
	userDatamodel "github.com/filevault/filevault/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *Repository) List(ctx context.Context) ([]*auth.User, error) {
	var rows []userDatamodel.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	users := make([]*auth.User, 0, len(rows))
	for i := range rows {
		users = append(users, toDomain(&rows[i]))
	}
	return users, nil
}

func (r *Repository) UpdateRole(ctx context.Context, id, role string) (*auth.User, error) {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (*auth.User, error) {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *Repository) updateColumn(ctx context.Context, id, column, value string) (*auth.User, error) {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, auth.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteCascade removes the account and its owned data in one transaction,
// in dependency order: grants the user holds, grants on the user's files,
// the file rows, the user row. Audit rows are left alone. It returns the
// storage keys of the removed files so the caller can delete the blobs
// after commit.
func (r *Repository) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	var storageKeys []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userDatamodel.User
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrUserNotFound
			}
			return err
		}

		if err := tx.Model(&fileDatamodel.File{}).
			Where("owner_id = ?", id).
			Pluck("storage_key", &storageKeys).Error; err != nil {
			return err
		}

		if err := tx.Where("grantee_id = ?", id).Delete(&grantDatamodel.Grant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id IN (?)",
			tx.Table("files").Select("id").Where("owner_id = ?", id),
		).Delete(&grantDatamodel.Grant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&fileDatamodel.File{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&userDatamodel.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return storageKeys, nil
}

func toDomain(row *userDatamodel.User) *auth.User {
	return &auth.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      row.Role,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
}
