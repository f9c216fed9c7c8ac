package domain

import "errors"

var (
	// ErrAuthenticationRequired indicates no valid credential was presented.
	// Handlers map it to 401.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrPermissionDenied indicates a valid session with insufficient
	// rights. Handlers map it to 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidGrant indicates the authorization code was expired or
	// already consumed by the provider.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrRefreshFailed indicates the provider rejected the refresh token.
	// The token cannot be retried as-is; the client must re-authenticate.
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on uniqueness violations, e.g. assigning
	// a role the user already holds.
	ErrAlreadyExists = errors.New("already exists")
)
