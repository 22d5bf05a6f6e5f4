package vault

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/filevault/filevault/internal"
	"github.com/filevault/filevault/internal/audit"
	"github.com/filevault/filevault/internal/auth"
	"github.com/filevault/filevault/internal/storage"
)

type FileRepositoryAPI interface {
	Create(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id string) (*File, error)
	ListAccessible(ctx context.Context, userID string) ([]*File, error)
	ListAll(ctx context.Context) ([]*File, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type GrantRepositoryAPI interface {
	Get(ctx context.Context, fileID, granteeID string) (*Grant, error)
	Upsert(ctx context.Context, g *Grant) error
}

// UserDirectoryAPI resolves share grantees. Lookup is by exact email; the
// vault never enumerates accounts itself.
type UserDirectoryAPI interface {
	GetByEmail(ctx context.Context, email string) (*auth.User, error)
}

type ServiceAPI interface {
	Upload(ctx context.Context, actor *auth.User, params UploadParams) (*File, error)
	Download(ctx context.Context, actor *auth.User, fileID, origin string) (io.ReadCloser, *File, error)
	Share(ctx context.Context, actor *auth.User, fileID string, dto ShareDTO, origin string) (*Grant, error)
	Delete(ctx context.Context, actor *auth.User, fileID, origin string) error
	ListAccessible(ctx context.Context, actor *auth.User) ([]*File, error)
	ListAll(ctx context.Context, actor *auth.User) ([]*File, error)
}

type UploadParams struct {
	Reader       io.Reader
	OriginalName string
	ContentType  string
	Origin       string
}

type Service struct {
	files    FileRepositoryAPI
	grants   GrantRepositoryAPI
	users    UserDirectoryAPI
	blobs    storage.BlobStore
	recorder audit.RecorderAPI
	logger   *slog.Logger
}

func NewService(files FileRepositoryAPI, grants GrantRepositoryAPI, users UserDirectoryAPI, blobs storage.BlobStore, recorder audit.RecorderAPI, logger *slog.Logger) *Service {
	return &Service{
		files:    files,
		grants:   grants,
		users:    users,
		blobs:    blobs,
		recorder: recorder,
		logger:   logger,
	}
}

// Upload streams content into blob storage under a fresh opaque key, hashing
// the exact bytes persisted, then records the metadata row. If either step
// fails the partial blob is removed so no orphaned content survives; the
// reverse anomaly (row without blob) surfaces later as a storage
// inconsistency on download.
func (s *Service) Upload(ctx context.Context, actor *auth.User, params UploadParams) (*File, error) {
	if !CanUpload(actor) {
		return nil, ErrAccessDenied
	}
	if err := ValidateFileName(params.OriginalName); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	digest := storage.NewDigestReader(params.Reader)

	size, err := s.blobs.Put(ctx, key, digest)
	if err != nil {
		s.cleanupBlob(ctx, key)
		s.logger.Error("blob write failed", "storage_key", key, "error", err)
		return nil, ErrStorageWrite.WithCause(err)
	}

	f := &File{
		ID:           uuid.NewString(),
		OriginalName: params.OriginalName,
		StorageKey:   key,
		FileSize:     size,
		ContentType:  params.ContentType,
		HashSHA256:   digest.Sum(),
		OwnerID:      actor.ID,
		CreatedAt:    time.Now(),
	}
	if err := s.files.Create(ctx, f); err != nil {
		s.cleanupBlob(ctx, key)
		s.logger.Error("file metadata write failed", "file_id", f.ID, "error", err)
		return nil, internal.NewInternalError("failed to save file", err)
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionUpload, &f.ID, params.Origin)
	return f, nil
}

// Download authorizes the actor, verifies the blob actually exists before
// promising content, and opens a stream. A metadata row whose blob is gone
// is reported as a storage inconsistency, never as "file not found": the
// file is known to exist, its content is what is missing.
func (s *Service) Download(ctx context.Context, actor *auth.User, fileID, origin string) (io.ReadCloser, *File, error) {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	grant, err := s.grantFor(ctx, actor, f)
	if err != nil {
		return nil, nil, err
	}
	if !Authorize(actor, f, grant, ActionDownload) {
		return nil, nil, ErrAccessDenied
	}

	exists, err := s.blobs.Exists(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to check file content", err)
	}
	if !exists {
		s.logger.Error("file metadata present but blob missing",
			"file_id", f.ID, "storage_key", f.StorageKey)
		return nil, nil, ErrStorageInconsistent
	}

	rc, err := s.blobs.Open(ctx, f.StorageKey)
	if err != nil {
		s.logger.Error("blob open failed", "file_id", f.ID, "storage_key", f.StorageKey, "error", err)
		return nil, nil, ErrStorageInconsistent.WithCause(err)
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionDownload, &f.ID, origin)
	return rc, f, nil
}

// Share grants or replaces the grantee's level on a file. Only the owner
// shares; an admin who is not the owner is refused like anyone else. The
// upsert is a single atomic statement, so concurrent shares for the same
// (file, grantee) pair collapse to one row with the last level written.
func (s *Service) Share(ctx context.Context, actor *auth.User, fileID string, dto ShareDTO, origin string) (*Grant, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !Authorize(actor, f, nil, ActionShare) {
		return nil, ErrAccessDenied
	}

	grantee, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, ErrGranteeNotFound
	}
	if actor.Same(grantee.ID) {
		return nil, ErrSelfGrant
	}

	now := time.Now()
	g := &Grant{
		ID:        uuid.NewString(),
		FileID:    f.ID,
		GranteeID: grantee.ID,
		Level:     dto.Level,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.grants.Upsert(ctx, g); err != nil {
		s.logger.Error("grant upsert failed", "file_id", f.ID, "grantee_id", grantee.ID, "error", err)
		return nil, internal.NewInternalError("failed to save grant", err)
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionShare, &f.ID, origin)
	return g, nil
}

// Delete removes the metadata row first, then the blob. The row delete is a
// single conditional statement: of two concurrent deletes exactly one
// observes a removed row, the other gets not-found. A blob left behind after
// the row is gone is unreachable and is only logged.
func (s *Service) Delete(ctx context.Context, actor *auth.User, fileID, origin string) error {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if !Authorize(actor, f, nil, ActionDelete) {
		return ErrAccessDenied
	}

	deleted, err := s.files.Delete(ctx, f.ID)
	if err != nil {
		s.logger.Error("file delete failed", "file_id", f.ID, "error", err)
		return internal.NewInternalError("failed to delete file", err)
	}
	if !deleted {
		return ErrFileNotFound
	}

	if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
		s.logger.Error("blob delete failed after metadata removal",
			"file_id", f.ID, "storage_key", f.StorageKey, "error", err)
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionDelete, &f.ID, origin)
	return nil
}

// ListAccessible returns every file the actor owns or holds any grant on,
// newest first. Holding only READ still lists the file: listing is metadata
// visibility, not content access.
func (s *Service) ListAccessible(ctx context.Context, actor *auth.User) ([]*File, error) {
	return s.files.ListAccessible(ctx, actor.ID)
}

func (s *Service) ListAll(ctx context.Context, actor *auth.User) ([]*File, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	return s.files.ListAll(ctx)
}

// grantFor loads the actor's grant only when the decision can depend on it.
func (s *Service) grantFor(ctx context.Context, actor *auth.User, f *File) (*Grant, error) {
	if actor.Same(f.OwnerID) || actor.IsAdmin() {
		return nil, nil
	}
	g, err := s.grants.Get(ctx, f.ID, actor.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load grant", err)
	}
	return g, nil
}

// cleanupBlob runs detached from the request: a canceled upload must still
// remove its partial blob.
func (s *Service) cleanupBlob(ctx context.Context, key string) {
	cleanupCtx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.blobs.Delete(cleanupCtx, key); err != nil {
		s.logger.Error("partial blob cleanup failed", "storage_key", key, "error", err)
	}
}
