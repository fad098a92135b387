package errx

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownCapability = errors.New("capability not registered")
	ErrCapabilityFailed  = errors.New("capability reported failure")
	ErrClassifier        = errors.New("classifier failed")
)

// UnknownCapability reports a registry lookup miss for name.
func UnknownCapability(name string) error {
	return New(fmt.Errorf("%w: %q", ErrUnknownCapability, name), http.StatusNotFound, UnknownCapabilityMessage)
}

// CapabilityFailed wraps an invocation error of the named capability.
func CapabilityFailed(name string, err error) error {
	if err == nil {
		err = ErrCapabilityFailed
	}
	return New(fmt.Errorf("%s: %w", name, err), http.StatusBadGateway, CapabilityFailedMessage)
}

// ClassifierFailed wraps an NLU classifier error. The orchestration core treats it
// as "feature absent" and never surfaces it to callers.
func ClassifierFailed(err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%w: %w", ErrClassifier, err), http.StatusBadGateway, ClassifierFailedMessage)
}
