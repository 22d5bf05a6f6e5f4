package vault

import (
	"path/filepath"
	"strings"

	"github.com/filevault/filevault/internal/auth"
)

// Action is an operation an actor attempts against a file.
type Action string

const (
	ActionRead     Action = "READ"
	ActionDownload Action = "DOWNLOAD"
	ActionShare    Action = "SHARE"
	ActionDelete   Action = "DELETE"
)

// forbiddenExtensions lists executable file types rejected at upload,
// matched case-insensitively against the display name's extension.
var forbiddenExtensions = map[string]struct{}{
	".exe": {},
	".sh":  {},
	".bat": {},
	".js":  {},
	".php": {},
	".pl":  {},
	".py":  {},
}

// CanUpload reports whether an actor's role permits creating files.
func CanUpload(actor *auth.User) bool {
	if actor == nil {
		return false
	}
	return actor.Role == auth.RoleAdmin || actor.Role == auth.RoleManager
}

// Authorize is the single pure access decision: may actor perform action
// on file f, given the actor's grant on that file (nil when none exists).
// It touches no storage and records nothing; callers load the grant and
// handle auditing.
//
// Ownership dominates every grant. ADMIN dominates grants for read,
// download and delete, but not for share: only the owner extends access
// to a file. A DOWNLOAD grant implies READ; the reverse never holds.
func Authorize(actor *auth.User, f *File, grant *Grant, action Action) bool {
	if actor == nil || f == nil {
		return false
	}
	if grant != nil && (grant.FileID != f.ID || !actor.Same(grant.GranteeID)) {
		return false
	}
	owner := actor.Same(f.OwnerID)

	switch action {
	case ActionShare:
		return owner
	case ActionDelete:
		return owner || actor.IsAdmin()
	case ActionDownload:
		if owner || actor.IsAdmin() {
			return true
		}
		return grant != nil && grant.Level == LevelDownload
	case ActionRead:
		if owner || actor.IsAdmin() {
			return true
		}
		if grant == nil {
			return false
		}
		return grant.Level == LevelDownload || grant.Level == LevelRead
	}
	return false
}

// ValidateFileName rejects empty display names and forbidden executable
// extensions before any bytes are persisted.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidFileName
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, blocked := forbiddenExtensions[ext]; blocked {
		return ErrFileTypeBlocked
	}
	return nil
}
