package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionLogin        Action = "LOGIN"
	ActionUpload       Action = "UPLOAD"
	ActionDownload     Action = "DOWNLOAD"
	ActionShare        Action = "SHARE"
	ActionDelete       Action = "DELETE"
	ActionRoleChange   Action = "ROLE_CHANGE"
	ActionStatusChange Action = "STATUS_CHANGE"
)

// Record is write-once. UserID and FileID are retained verbatim even after
// the referenced user or file is deleted; listings resolve what they still
// can and leave the rest blank.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	FileID    *string   `json:"file_id,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// resolved for listings; empty when the reference dangles
	ActorName  string  `json:"actor_name,omitempty"`
	ActorEmail string  `json:"actor_email,omitempty"`
	FileName   *string `json:"file_name,omitempty"`
}

// RepositoryAPI exposes append and read only. There is deliberately no
// update or delete.
type RepositoryAPI interface {
	Append(ctx context.Context, rec *Record) error
	ListNewestFirst(ctx context.Context) ([]*Record, error)
}

// RecorderAPI is the contract the rest of the system records through.
// Record never fails the caller: audit loss is reported operationally, not
// propagated into the action being documented.
type RecorderAPI interface {
	Record(ctx context.Context, actorID string, action Action, fileID *string, origin string)
}
