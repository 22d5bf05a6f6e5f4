package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder is the single audit sink. Every security-relevant action goes
// through Record after its mutating step commits; an append failure is
// surfaced to the operational log and nowhere else.
type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

func (r *Recorder) Record(ctx context.Context, actorID string, action Action, fileID *string, origin string) {
	rec := &Record{
		ID:        uuid.NewString(),
		UserID:    actorID,
		Action:    action,
		FileID:    fileID,
		IPAddress: origin,
		CreatedAt: time.Now(),
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		// The primary action already committed; losing its audit trail is
		// a compliance concern, so shout, but never roll the action back.
		r.logger.Error("audit append failed",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"origin", origin)
	}
}

// List returns the full trail newest-first, ties broken by insertion order.
func (r *Recorder) List(ctx context.Context) ([]*Record, error) {
	records, err := r.repo.ListNewestFirst(ctx)
	if err != nil {
		r.logger.Error("failed to list audit records", "error", err)
		return nil, err
	}
	return records, nil
}
