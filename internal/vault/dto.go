package vault

import "strings"

type ShareDTO struct {
	Email string `json:"email"`
	Level string `json:"level"`
}

func (d ShareDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid grantee email is required"}
	}
	if !ValidLevel(d.Level) {
		return ErrInvalidLevel
	}
	return nil
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }
