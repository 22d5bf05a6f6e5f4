package user

import (
	"github.com/filevault/filevault/internal"
)

var (
	ErrSelfAction = internal.NewForbiddenError("cannot perform this action on your own account", internal.ErrCodeSelfAction)

	ErrInvalidRole   = internal.NewValidationError("role must be ADMIN, MANAGER or USER", internal.ErrCodeInvalidRole)
	ErrInvalidStatus = internal.NewValidationError("status must be PENDING, ACTIVE or SUSPENDED", internal.ErrCodeInvalidStatus)
)
