package errors

import (
	"fmt"
	"testing"
)

// GenerateError Syntactic sugar to display errors
func GenerateError(t *testing.T, text string) {
	t.Errorf("An error occurred : %s", text)
}

// InstallError is returned when one of the precache manifest URLs cannot be fetched
type InstallError struct {
	Version string
	URL     string
	Cause   error
}

func (i *InstallError) Error() string {
	return fmt.Sprintf("Impossible to install the version %s, the precache of %s failed: %v", i.Version, i.URL, i.Cause)
}

func (i *InstallError) Unwrap() error {
	return i.Cause
}

// InvalidStateError is returned when a lifecycle operation is called from the wrong state
type InvalidStateError struct {
	Operation string
	State     string
}

func (i *InvalidStateError) Error() string {
	return fmt.Sprintf("Impossible to %s a worker in the %s state", i.Operation, i.State)
}

// UnsuccessfulResponseError is the fetch error for a response without an ok status
type UnsuccessfulResponseError struct {
	StatusCode int
}

func (u *UnsuccessfulResponseError) Error() string {
	return fmt.Sprintf("The upstream responded with the non-ok status code %d", u.StatusCode)
}

// UnknownStorerError is returned when the configured storer doesn't exist
type UnknownStorerError struct {
	Name string
}

func (u *UnknownStorerError) Error() string {
	return fmt.Sprintf("Storer with name %s not found", u.Name)
}

// NoFallbackError is returned when the network failed and nothing cached can answer the request
type NoFallbackError struct {
	URL string
}

func (n *NoFallbackError) Error() string {
	return fmt.Sprintf("The network failed and neither %s nor the offline page are cached", n.URL)
}
