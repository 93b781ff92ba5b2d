package hotword

import "errors"

// ErrConfiguration is matched by every construction-time failure of a
// Profile, Detector or MultiDetector.
var ErrConfiguration = errors.New("hotword: configuration error")

// Configuration error kinds. Each is returned wrapped in a *ConfigError, so
// errors.Is matches both the kind and ErrConfiguration.
var (
	ErrReferenceNotFound   = errors.New("reference file not found")
	ErrReferenceUnreadable = errors.New("reference file unreadable")
	ErrInsufficientSamples = errors.New("insufficient reference samples")
	ErrModelMismatch       = errors.New("model/reference type mismatch")
	ErrMalformedReference  = errors.New("malformed reference file")
	ErrInvalidThreshold    = errors.New("threshold must be in (0, 1)")
	ErrInvalidRelaxation   = errors.New("relaxation must not be negative")
	ErrTooFewDetectors     = errors.New("at least two detectors required")
	ErrInvalidDetector     = errors.New("invalid detector")
)

// ConfigError describes why a profile, detector or arbiter could not be
// constructed.
type ConfigError struct {
	// Kind is one of the Err* kinds above.
	Kind error

	// Detail is optional context, e.g. the reference path or offending value.
	Detail string

	// Err is the underlying cause, if any (e.g. a decode error).
	Err error
}

func (e *ConfigError) Error() string {
	msg := "hotword: " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrConfiguration or the error's kind.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration || target == e.Kind
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(kind error, detail string, cause error) error {
	return &ConfigError{Kind: kind, Detail: detail, Err: cause}
}
