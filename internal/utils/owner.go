package utils

import (
	"net/http"
	"strings"
)

const (
	// OwnerHeader carries the authenticated user id set by the upstream gateway.
	OwnerHeader = "X-Owner-ID"
	// DefaultOwnerID is used when the header is absent.
	DefaultOwnerID = "default"
)

// OwnerID returns the owner of the request.
func OwnerID(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(OwnerHeader)); owner != "" {
		return owner
	}
	return DefaultOwnerID
}
