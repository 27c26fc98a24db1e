package prestige

import "github.com/cockroachdb/errors"

// Failure classes. Every error returned by ObtainPrestige carries exactly one
// of ErrFatalAbort or ErrPersistence, except ErrTransitionInProgress which is
// returned before anything is read.
var (
	ErrFatalAbort  = errors.New("prestige: transition aborted")
	ErrPersistence = errors.New("prestige: final save failed")
)

var (
	ErrTransitionInProgress = errors.New("prestige: transition already in progress")
	ErrProfileMissing       = errors.New("prestige: profile not found")
	ErrTierUnavailable      = errors.New("prestige: tier not defined")
	ErrInterrupted          = errors.New("prestige: refused by hook")
	ErrBackupFailed         = errors.New("prestige: backup failed")
	ErrResetFailed          = errors.New("prestige: profile reset failed")
)

// abort wraps cause as a fatal abort of the given kind.
func abort(cause, kind error, format string, args ...interface{}) error {
	if cause == nil {
		cause = kind
	}
	err := errors.Wrapf(cause, format, args...)
	return errors.Mark(errors.Mark(err, kind), ErrFatalAbort)
}
