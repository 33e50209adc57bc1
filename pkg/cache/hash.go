package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/lineage/pkg/profile"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashProfiles fingerprints a profile stream. Order matters: it decides
// sibling tie-breaks and cycle breaking.
func HashProfiles(profiles []profile.Profile) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range profiles {
		_ = enc.Encode(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
