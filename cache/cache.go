package cache

import (
	"errors"
	"io"
	"net/http"
	"time"
)

// Cache stores upstream symbol-store responses identified by Key.
type Cache interface {
	io.Closer
	Stats() Stats

	// Get returns the cached response for key, or ErrMissing if the key
	// is absent or its freshness window has lapsed.
	Get(key *Key) (*CachedResponse, error)

	// ReserveCapacity reports whether the cache can admit a new entry.
	// Callers must consult it before Finalize and skip persisting when it
	// returns false.
	ReserveCapacity() bool

	// Finalize persists a terminal upstream response under key. The entry
	// becomes visible to Get only after both the body and the metadata
	// have been written successfully.
	Finalize(key *Key, statusCode int, header http.Header, body io.Reader) error
}

// CachedResponse is a single cached upstream response.
//
// Body must be closed by the caller once read.
type CachedResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser

	// Ttl is the remaining freshness window of the entry.
	Ttl time.Duration
}

// Stats describes the current state of the cache.
type Stats struct {
	// Items is the number of live (unexpired) entries.
	Items uint64

	// PendingWrites is the number of finalize operations still in flight.
	PendingWrites uint64
}

// ErrMissing is returned when the entry isn't found in the cache.
var ErrMissing = errors.New("missing cache entry")
