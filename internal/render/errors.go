package render

import "github.com/cockroachdb/errors"

// Error categories. Every error returned by this package is marked with one of
// them, test with errors.Is.
var (
	ErrFatalInit              = errors.New("fatal initialization error")
	ErrResourceCreation       = errors.New("resource creation error")
	ErrAssetNotFound          = errors.New("asset not found")
	ErrSynchronizationTimeout = errors.New("synchronization timeout")
)

// Errors a Driver reports for conditions the core reacts to.
var (
	ErrTimeout   = errors.New("wait timed out")
	ErrOutOfDate = errors.New("swapchain out of date")
)

var (
	ErrNoMemoryType          = errors.New("no compatible memory type")
	ErrUnsupportedTransition = errors.New("unsupported image layout transition")
	ErrNoGraphicsQueue       = errors.New("no graphics queue family")
	ErrNoPhysicalDevice      = errors.New("no physical device")
	ErrNoSurfaceFormat       = errors.New("surface format not supported")
)

func fatal(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrFatalInit)
}

func fatalf(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFatalInit)
}

func resource(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrResourceCreation)
}

func resourcef(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrResourceCreation)
}

// waitErr classifies a failed fence wait or image acquisition.
func waitErr(err error, op string) error {
	if errors.Is(err, ErrTimeout) {
		return errors.Mark(errors.Wrap(err, op), ErrSynchronizationTimeout)
	}
	return errors.Wrap(err, op)
}
