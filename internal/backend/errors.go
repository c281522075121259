package backend

import (
	"errors"
	"fmt"
)

// UnsupportedFeatureError reports a request the backend variant or its
// current configuration cannot serve.
type UnsupportedFeatureError struct {
	Backend string
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedFeatureError) Error() string {
	msg := fmt.Sprintf("%s: %s unsupported: %s", e.Backend, e.Feature, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnsupportedFeatureError) Unwrap() error {
	return e.Err
}

// IsUnsupportedFeature reports whether err is an UnsupportedFeatureError.
func IsUnsupportedFeature(err error) bool {
	var ue *UnsupportedFeatureError
	return errors.As(err, &ue)
}
