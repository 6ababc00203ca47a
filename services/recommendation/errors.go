package recommendation

import "errors"

var (
	// ErrMissingLocation means the user has no coordinates to rank against.
	ErrMissingLocation = errors.New("recommendation: user has no location")
	// ErrNoCandidates means every pool, including the fallback, was empty.
	ErrNoCandidates = errors.New("recommendation: no candidates")
	// ErrUserNotFound means the snapshot has no such user.
	ErrUserNotFound = errors.New("recommendation: user not found")
)
