package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPermissionDenied     = errors.New("location permission denied")
	ErrLocationUnavailable  = errors.New("location unavailable")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrNotFound             = errors.New("not found")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidTransition    = errors.New("invalid map state transition")
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError carries per-field problems found before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BackendError is a non-2xx reply from the REST backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend status %d", e.Status)
}
