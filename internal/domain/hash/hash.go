// Package hash assigns each entry in a set the shortest path-safe prefix of
// its content hash that still distinguishes it from every other entry in
// the same set.
//
// Each entry ID is hashed with SHA-256, base64url-encoded, sorted
// lexicographically, and truncated to keep only as much of each hash as its
// nearest lexicographic neighbor requires to stay distinct.
package hash

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

// EntryID is the unique identifier fed into the hash (an Atom <id> or a
// fallback link). OfEntry returns the full, untruncated digest for one ID.
func OfEntry(id string) string {
	sum := sha256.Sum256([]byte(id))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:])
}

// AssignDistinguishingPrefixes computes the shortest distinguishing prefix
// of each id's hash within the given set of ids, returning a map from id to
// its assigned prefix. A genuine collision between two distinct full
// SHA-256 hashes is accepted as vanishingly unlikely and never special-cased.
func AssignDistinguishingPrefixes(ids []string) map[string]string {
	type entry struct {
		id   string
		hash string
	}

	entries := make([]entry, len(ids))
	for i, id := range ids {
		entries[i] = entry{id: id, hash: OfEntry(id)}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].hash < entries[j].hash
	})

	result := make(map[string]string, len(entries))
	for i, e := range entries {
		lcpPrev := 0
		if i > 0 {
			lcpPrev = commonPrefixLen(entries[i-1].hash, e.hash)
		}
		lcpNext := 0
		if i < len(entries)-1 {
			lcpNext = commonPrefixLen(e.hash, entries[i+1].hash)
		}
		l := lcpPrev
		if lcpNext > l {
			l = lcpNext
		}
		cut := l + 1
		if cut > len(e.hash) {
			cut = len(e.hash)
		}
		result[e.id] = e.hash[:cut]
	}

	return result
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
