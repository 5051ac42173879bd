package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInstanceNotConnected is returned when a send targets a secret code with
// no connected live instance.
var ErrInstanceNotConnected = errors.New("instance not found or not connected")

// RecipientNotFoundError is returned when no candidate exists on the
// channel. Checked lists every candidate tried, for diagnosis.
type RecipientNotFoundError struct {
	Checked []string
}

func (e *RecipientNotFoundError) Error() string {
	return fmt.Sprintf("recipient not on channel (checked: %s)", strings.Join(e.Checked, ", "))
}

// MediaFetchError is returned when the image download fails, distinct from
// delivery errors.
type MediaFetchError struct {
	URL string
	Err error
}

func (e *MediaFetchError) Error() string {
	return fmt.Sprintf("fetch image %s: %v", e.URL, e.Err)
}

func (e *MediaFetchError) Unwrap() error { return e.Err }
