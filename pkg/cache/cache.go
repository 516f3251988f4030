// Package cache stores intermediate results of evaluation runs.
//
// Computing importance vectors and learned weights dominates the cost of a
// sweep, and both are pure functions of the dataset and a handful of
// options. The [Keyer] turns a dataset fingerprint plus those options into a
// stable key, and a [Cache] backend stores the encoded vectors:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON entry per key under a local directory
//   - [RedisCache]: a shared redis instance
//
// Payloads are flat float64 vectors encoded with [EncodeVector].
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	TTLImportance = 30 * 24 * time.Hour
	TTLWeights    = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}

// ImportanceKeyOpts are the options an importance vector depends on.
type ImportanceKeyOpts struct {
	Method        string  `json:"method"`
	Teleport      float64 `json:"teleport"`
	Epsilon       float64 `json:"epsilon"`
	MaxIterations int     `json:"max_iterations"`
}

// WeightsKeyOpts are the options a learned weight vector depends on.
type WeightsKeyOpts struct {
	Teleport     float64 `json:"teleport"`
	Replications int     `json:"replications"`
	Seed         uint64  `json:"seed"`
	Rate         float64 `json:"rate"`
	Iterations   int     `json:"iterations"`
	Strength     float64 `json:"strength"`
	Policy       string  `json:"policy"`
}

// Keyer builds cache keys.
type Keyer interface {
	ImportanceKey(datasetHash string, opts ImportanceKeyOpts) string
	WeightsKey(datasetHash string, opts WeightsKeyOpts) string
}

// DefaultKeyer hashes the dataset fingerprint together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImportanceKey returns the key of an importance vector.
func (DefaultKeyer) ImportanceKey(datasetHash string, opts ImportanceKeyOpts) string {
	return hashKey("importance", datasetHash, opts)
}

// WeightsKey returns the key of a learned weight vector.
func (DefaultKeyer) WeightsKey(datasetHash string, opts WeightsKeyOpts) string {
	return hashKey("weights", datasetHash, opts)
}
