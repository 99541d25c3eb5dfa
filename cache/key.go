package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Version must be increased with each backward-incompatible change
// in the cache storage.
const Version = 1

// Key is the key for use in the cache, derived from the canonical
// (normalized) request path.
type Key struct {
	// Path must contain the canonical path, i.e. the output of path
	// normalization. Using the raw request path here would split the
	// cache across producer spelling variants.
	Path string

	// Version represents data encoding version number.
	Version int
}

// NewKey constructs a cache key for the given canonical path with the
// default version number.
func NewKey(canonicalPath string) *Key {
	return &Key{
		Path:    canonicalPath,
		Version: Version,
	}
}

// String returns the string representation of the key: a lowercase
// fixed-length hex digest of the canonical path.
func (k *Key) String() string {
	s := fmt.Sprintf("V%d; Path=%q", k.Version, k.Path)
	h := sha256.Sum256([]byte(s))

	// The first 16 bytes of the hash should be enough
	// for collision prevention :)
	return hex.EncodeToString(h[:16])
}
