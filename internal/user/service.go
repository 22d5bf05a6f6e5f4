package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/filevault/filevault/internal"
	"github.com/filevault/filevault/internal/audit"
	"github.com/filevault/filevault/internal/auth"
	"github.com/filevault/filevault/internal/storage"
	"github.com/filevault/filevault/internal/vault"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
	GetByEmail(ctx context.Context, email string) (*auth.User, error)
	List(ctx context.Context) ([]*auth.User, error)
	UpdateRole(ctx context.Context, id, role string) (*auth.User, error)
	UpdateStatus(ctx context.Context, id, status string) (*auth.User, error)
	DeleteCascade(ctx context.Context, id string) ([]string, error)
}

type ServiceAPI interface {
	List(ctx context.Context, actor *auth.User) ([]*auth.User, error)
	SetRole(ctx context.Context, actor *auth.User, targetID, role, origin string) (*auth.User, error)
	SetStatus(ctx context.Context, actor *auth.User, targetID, status, origin string) (*auth.User, error)
	Delete(ctx context.Context, actor *auth.User, targetID, origin string) error
}

// Service covers admin account administration. Every operation requires an
// ADMIN actor and none of them may target the actor's own account, so an
// admin can never demote, suspend or delete themselves.
type Service struct {
	repo     RepositoryAPI
	blobs    storage.BlobStore
	recorder audit.RecorderAPI
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, blobs storage.BlobStore, recorder audit.RecorderAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		recorder: recorder,
		logger:   logger,
	}
}

// List returns every account newest first. Password digests never leave the
// repository layer.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*auth.User, error) {
	if !actor.IsAdmin() {
		return nil, vault.ErrAccessDenied
	}
	return s.repo.List(ctx)
}

func (s *Service) SetRole(ctx context.Context, actor *auth.User, targetID, role, origin string) (*auth.User, error) {
	if err := (RoleDTO{Role: role}).Validate(); err != nil {
		return nil, err
	}
	if err := s.guard(actor, targetID); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionRoleChange, nil, origin)
	s.logger.Info("role changed", "target_id", targetID, "role", role, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) SetStatus(ctx context.Context, actor *auth.User, targetID, status, origin string) (*auth.User, error) {
	if err := (StatusDTO{Status: status}).Validate(); err != nil {
		return nil, err
	}
	if err := s.guard(actor, targetID); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateStatus(ctx, targetID, status)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionStatusChange, nil, origin)
	s.logger.Info("status changed", "target_id", targetID, "status", status, "actor_id", actor.ID)
	return u, nil
}

// Delete removes the account and everything it owns in one transaction:
// grants the user holds, grants on the user's files, the file rows, then
// the user row. Blob content is deleted only after the transaction commits;
// a blob that fails to delete is logged and left for reconciliation. Audit
// records referencing the user stay untouched.
func (s *Service) Delete(ctx context.Context, actor *auth.User, targetID, origin string) error {
	if err := s.guard(actor, targetID); err != nil {
		return err
	}

	storageKeys, err := s.repo.DeleteCascade(ctx, targetID)
	if err != nil {
		return err
	}

	deleteCtx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	for _, key := range storageKeys {
		if err := s.blobs.Delete(deleteCtx, key); err != nil {
			s.logger.Error("blob delete failed during account removal",
				"target_id", targetID, "storage_key", key, "error", err)
		}
	}

	s.recorder.Record(ctx, actor.ID, audit.ActionDelete, nil, origin)
	s.logger.Info("account deleted", "target_id", targetID, "actor_id", actor.ID, "files_removed", len(storageKeys))
	return nil
}

func (s *Service) guard(actor *auth.User, targetID string) error {
	if !actor.IsAdmin() {
		return vault.ErrAccessDenied
	}
	if actor.Same(targetID) {
		return ErrSelfAction
	}
	return nil
}
