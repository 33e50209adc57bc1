// Package cache stores computed layouts so repeated runs over the same
// profiles skip the layout pass.
//
// A [Cache] is a plain byte store with TTLs. Three backends are provided:
//   - [FileCache] for the CLI, one file per key under a cache directory
//   - [RedisCache] for the server, shared between instances
//   - [NullCache] when caching is disabled
//
// Keys come from a [Keyer] so deployments can namespace them, and values
// written by [LayoutStore] are snappy-compressed layout documents.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiration.
type Cache interface {
	// Get returns the value for key. A miss returns ok == false and no error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies a layout of the profiles with hash profilesHash.
	LayoutKey(profilesHash string, opts LayoutKeyOpts) string
	// ViewKey identifies a persisted camera snapshot.
	ViewKey(viewID string) string
}

// LayoutKeyOpts are the settings that change a layout's output.
type LayoutKeyOpts struct {
	Orientation   string  `json:"orientation"`
	CardWidth     float64 `json:"card_width"`
	CardHeight    float64 `json:"card_height"`
	SiblingGap    float64 `json:"sibling_gap"`
	GenerationGap float64 `json:"generation_gap"`
	RootGap       float64 `json:"root_gap"`
	SpouseGap     float64 `json:"spouse_gap"`
	MaxProfiles   int     `json:"max_profiles"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(profilesHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", profilesHash, opts)
}

// ViewKey implements [Keyer].
func (DefaultKeyer) ViewKey(viewID string) string { return "view:" + viewID }
