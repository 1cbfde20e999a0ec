package errs

import (
	"errors"
	"net/http"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrProjectForbidden  = errors.New("you do not have access to this project")
	ErrOrganizationTaken = errors.New("an organization with this code already exists")
	ErrNameRequired      = errors.New("organization name is required")
	ErrCodeRequired      = errors.New("organization code is required")

	ErrInviteNotFound  = errors.New("invite not found")
	ErrInviteUsed      = errors.New("invite already used")
	ErrInviteExpired   = errors.New("invite expired")
	ErrInviterNotFound = errors.New("inviter not found")
	ErrSelfInvite      = errors.New("you cannot invite yourself")
	ErrAlreadyMember   = errors.New("user already has access to this project")
	ErrEmailRequired   = errors.New("email is required")

	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordRequired   = errors.New("password is required to create your account")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")

	ErrReleaseNotFound  = errors.New("release not found")
	ErrDuplicateRelease = errors.New("release already exists for this environment")

	ErrEventNotFound  = errors.New("transaction event not found")
	ErrEventForbidden = errors.New("you do not have access to this transaction event")
	ErrDuplicateEvent = errors.New("transaction event already exists")
)

var ErrStatusMap = map[error]int{
	ErrProjectNotFound:   http.StatusNotFound,
	ErrProjectForbidden:  http.StatusForbidden,
	ErrOrganizationTaken: http.StatusConflict,
	ErrNameRequired:      http.StatusBadRequest,
	ErrCodeRequired:      http.StatusBadRequest,

	ErrInviteNotFound:  http.StatusNotFound,
	ErrInviteUsed:      http.StatusBadRequest,
	ErrInviteExpired:   http.StatusBadRequest,
	ErrInviterNotFound: http.StatusNotFound,
	ErrSelfInvite:      http.StatusBadRequest,
	ErrAlreadyMember:   http.StatusConflict,
	ErrEmailRequired:   http.StatusBadRequest,

	ErrEmailTaken:         http.StatusConflict,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrPasswordRequired:   http.StatusBadRequest,
	ErrWrongPassword:      http.StatusBadRequest,
	ErrUserNotFound:       http.StatusNotFound,

	ErrReleaseNotFound:  http.StatusNotFound,
	ErrDuplicateRelease: http.StatusConflict,

	ErrEventNotFound:  http.StatusNotFound,
	ErrEventForbidden: http.StatusForbidden,
	ErrDuplicateEvent: http.StatusConflict,
}

// Status resolves a domain error to its HTTP status code, falling back to
// 500 for anything outside the map.
func Status(err error) int {
	for known, code := range ErrStatusMap {
		if errors.Is(err, known) {
			return code
		}
	}
	return http.StatusInternalServerError
}
