package user

import "github.com/filevault/filevault/internal/auth"

type RoleDTO struct {
	Role string `json:"role"`
}

func (d RoleDTO) Validate() error {
	if !auth.ValidRole(d.Role) {
		return ErrInvalidRole
	}
	return nil
}

type StatusDTO struct {
	Status string `json:"status"`
}

func (d StatusDTO) Validate() error {
	if !auth.ValidStatus(d.Status) {
		return ErrInvalidStatus
	}
	return nil
}
