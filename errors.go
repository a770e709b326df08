package lapindex

import "github.com/pkg/errors"

var (
	ErrSessionsDirNotFound = errors.New("lapindex: sessions directory not found")
	ErrInvalidConfig       = errors.New("lapindex: invalid configuration")
	ErrNoSessionID         = errors.New("lapindex: session has no session_id")
)

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
