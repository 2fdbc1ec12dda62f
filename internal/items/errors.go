package items

import (
	"fmt"
	"strings"
)

// NotFoundError reports an unknown collection id together with the valid ids.
type NotFoundError struct {
	CollectionID string
	ValidIDs     []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("collection %q not found. Available collections: %s",
		e.CollectionID, strings.Join(e.ValidIDs, ", "))
}

// ValidationError names the offending query parameter. The request is
// rejected outright; no partial result is returned.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// UpstreamError wraps a row-source failure so the caller can distinguish an
// unavailable data lake from a legitimately empty result.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream data service unavailable: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// DelegatedError signals that the collection serves its items through a
// dedicated endpoint rather than the OGC items route.
type DelegatedError struct {
	CollectionID string
	Path         string
}

func (e *DelegatedError) Error() string {
	return fmt.Sprintf("collection %q is served via %s", e.CollectionID, e.Path)
}
