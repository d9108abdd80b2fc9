package data

import (
	apperrors "github.com/target/lab-portal/internal/errors"
)

// Shared sentinel errors for data-layer repositories. They are AppErrors so the
// HTTP layer maps them without knowing about the data package.
var (
	ErrUserNotFound       = apperrors.NotFound("user not found")
	ErrUserEmailExists    = apperrors.Conflict("a user with this email already exists")
	ErrDepartmentNotFound = apperrors.NotFound("department not found")
	ErrNewsletterNotFound = apperrors.NotFound("newsletter not found")
	ErrProjectNotFound    = apperrors.NotFound("project not found")
	// ErrProjectStatusChanged is returned when a transition loses a race with another writer.
	ErrProjectStatusChanged = apperrors.Conflict("project status changed; reload and try again")
	ErrContactNotFound      = apperrors.NotFound("contact message not found")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	sortDirAsc       = "ASC"
	sortDirDesc      = "DESC"
)

// clampPage applies default and maximum page sizes.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	return limit, max(offset, 0)
}
