package vault

import (
	"time"

	"github.com/filevault/filevault/internal"
	fileDatamodel "github.com/filevault/filevault/internal/core/datamodel/file"
	grantDatamodel "github.com/filevault/filevault/internal/core/datamodel/grant"
)

// Permission levels. DOWNLOAD strictly dominates READ.
const (
	LevelRead     = "READ"
	LevelDownload = "DOWNLOAD"
)

func ValidLevel(level string) bool {
	return level == LevelRead || level == LevelDownload
}

type OwnerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// File is immutable once created; the only lifecycle transition left is
// deletion. StorageKey stays internal: it is an opaque blob key, never
// derived from OriginalName and never exposed to callers.
type File struct {
	ID           string     `json:"id"`
	OriginalName string     `json:"original_name"`
	StorageKey   string     `json:"-"`
	FileSize     int64      `json:"file_size"`
	ContentType  string     `json:"content_type"`
	HashSHA256   string     `json:"hash_sha256"`
	OwnerID      string     `json:"owner_id"`
	CreatedAt    time.Time  `json:"created_at"`
	Owner        *OwnerInfo `json:"owner,omitempty"`
}

// Grant is the single explicit permission a grantee holds on a file.
// Unique per (file, grantee); re-granting replaces the level.
type Grant struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	GranteeID string    `json:"grantee_id"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrFileNotFound    = internal.NewNotFoundError("file not found", internal.ErrCodeFileNotFound)
	ErrAccessDenied    = internal.NewForbiddenError("access denied", internal.ErrCodeAccessDenied)
	ErrGranteeNotFound = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrSelfGrant       = internal.NewValidationError("cannot share a file with yourself", internal.ErrCodeSelfGrant)
	ErrInvalidLevel    = internal.NewValidationError("permission level must be READ or DOWNLOAD", internal.ErrCodeInvalidLevel)
	ErrInvalidFileName = internal.NewValidationError("a file name is required", internal.ErrCodeInvalidFileName)
	ErrFileTypeBlocked = internal.NewValidationError("file type not allowed", internal.ErrCodeFileTypeBlocked)

	ErrStorageWrite        = internal.NewStorageError("failed to store file content", internal.ErrCodeStorageWriteFailed)
	ErrStorageInconsistent = internal.NewStorageError("file content missing from storage", internal.ErrCodeStorageInconsistent)
)

func ToFileDataModel(f *File) *fileDatamodel.File {
	return &fileDatamodel.File{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		StorageKey:   f.StorageKey,
		FileSize:     f.FileSize,
		ContentType:  f.ContentType,
		HashSHA256:   f.HashSHA256,
		OwnerID:      f.OwnerID,
		CreatedAt:    f.CreatedAt,
	}
}

func FromFileDataModel(row *fileDatamodel.File) *File {
	return &File{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		StorageKey:   row.StorageKey,
		FileSize:     row.FileSize,
		ContentType:  row.ContentType,
		HashSHA256:   row.HashSHA256,
		OwnerID:      row.OwnerID,
		CreatedAt:    row.CreatedAt,
	}
}

func ToGrantDataModel(g *Grant) *grantDatamodel.Grant {
	return &grantDatamodel.Grant{
		ID:        g.ID,
		FileID:    g.FileID,
		GranteeID: g.GranteeID,
		Level:     g.Level,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func FromGrantDataModel(row *grantDatamodel.Grant) *Grant {
	return &Grant{
		ID:        row.ID,
		FileID:    row.FileID,
		GranteeID: row.GranteeID,
		Level:     row.Level,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
