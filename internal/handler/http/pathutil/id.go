package pathutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractID extracts and parses an integer ID from a URL path.
// It removes the specified prefix and attempts to parse the remaining string as an int64.
//
// Parameters:
//   - path: The full URL path (e.g., "/articles/123")
//   - prefix: The prefix to remove (e.g., "/articles/")
//
// Returns:
//   - int64: The parsed ID
//   - error: ErrInvalidID if the ID is invalid or <= 0
//
// Example:
//
//	id, err := ExtractID("/articles/123", "/articles/")
//	// Returns: 123, nil
func ExtractID(path, prefix string) (int64, error) {
	idStr := strings.TrimPrefix(path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ExtractStringID extracts an opaque string identifier (e.g. a UUID) from a
// URL path by removing the given prefix.
//
// Example:
//
//	id, err := ExtractStringID("/admin/sources/550e8400-...", "/admin/sources/")
func ExtractStringID(path, prefix string) (string, error) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}
