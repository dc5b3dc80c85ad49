package snapchat

import (
	"errors"
	"fmt"
	"strings"
)

// mediaNotReadyReason is the platform's wording when an ad references media
// that is still processing. Keep the substring in this one place.
const mediaNotReadyReason = "hasn't been uploaded yet"

// APIError is a platform-level failure: either an HTTP error status or a
// logical ERROR inside an otherwise successful envelope.
type APIError struct {
	StatusCode int
	Resource   string
	Reason     string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("snapchat api error (%s): status %d: %s", e.Resource, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("snapchat api error (%s): %s", e.Resource, e.Reason)
}

// IsMediaNotReady reports whether err is the platform telling us the
// referenced media has not finished processing. Callers back off and retry
// rather than counting the item as failed.
func IsMediaNotReady(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Reason, mediaNotReadyReason)
}
