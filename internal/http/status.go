package http

import (
	"fmt"
	"net/http"
	"strings"

	"exercise-tracker/internal/service"
)

// StatusPolicy maps a failure kind to the HTTP status written with the error body.
type StatusPolicy func(kind service.Kind) int

// LegacyStatus answers every failure with 200; callers inspect the error field.
func LegacyStatus(service.Kind) int {
	return http.StatusOK
}

// StrictStatus maps failure kinds to conventional client and server error codes.
func StrictStatus(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ParseStatusPolicy resolves a configured policy name.
func ParseStatusPolicy(name string) (StatusPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "legacy":
		return LegacyStatus, nil
	case "strict":
		return StrictStatus, nil
	default:
		return nil, fmt.Errorf("unknown error status policy %q", name)
	}
}
