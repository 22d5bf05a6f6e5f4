package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filevault/filevault/internal/auth"
	userDatamodel "github.com/filevault/filevault/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *auth.User, passwordHash string) error {
	row := &userDatamodel.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: passwordHash,
		Role:         u.Role,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return auth.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*auth.User, string, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", auth.ErrUserNotFound
		}
		return nil, "", err
	}
	return toDomain(&row), row.PasswordHash, nil
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
