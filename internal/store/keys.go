package store

import "sync"

// Key prefixes.
const (
	sidecarPrefix = "sidecar:"
	exhibitIndex  = "exhibit"
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Covers the prefix and a 32 char document ID with room to spare.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled buffer.
// Callers MUST call releaseKey when done with the key, and only after the
// transaction using it has committed.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// indexKey constructs "<prefix>idx:<name>:<value>:<id>".
func indexKey(prefix, indexName, value, id string) []byte {
	return append(indexPrefix(prefix, indexName, value), id...)
}

// indexPrefix returns "<prefix>idx:<name>:<value>:" for prefix scans.
func indexPrefix(prefix, indexName, value string) []byte {
	return []byte(prefix + "idx:" + indexName + ":" + value + ":")
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Avoid keeping oversized buffers in the pool
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
