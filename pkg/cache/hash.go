package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
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

// HashJSON hashes the JSON encoding of v. Map keys are sorted by
// encoding/json, so equal values hash equally.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// Keyer derives cache keys for solve results.
type Keyer interface {
	// SolveKey is the key of a heuristic solve of a board.
	SolveKey(boardHash string, opts SolveKeyOpts) string
	// ExactKey is the key of an exact solve.
	ExactKey(boardHash string, opts ExactKeyOpts) string
}

// SolveKeyOpts are the inputs of a heuristic solve besides the board.
type SolveKeyOpts struct {
	Recipes      string `json:"recipes"` // recipe book hash
	Strategy     string `json:"strategy"`
	Mode         string `json:"mode"`
	Seed         uint64 `json:"seed"`
	ProtectSeeds bool   `json:"protect_seeds"`
}

// ExactKeyOpts are the inputs of an exact solve besides the board. The
// time limit is included because a timed-out result differs from an
// optimal one.
type ExactKeyOpts struct {
	Recipes       string `json:"recipes"`
	MaxTimeSecs   int    `json:"max_time_secs"`
	AllowStacking bool   `json:"allow_stacking"`
}

// DefaultKeyer hashes the inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SolveKey implements Keyer.
func (DefaultKeyer) SolveKey(boardHash string, opts SolveKeyOpts) string {
	return hashKey("solve", boardHash, opts)
}

// ExactKey implements Keyer.
func (DefaultKeyer) ExactKey(boardHash string, opts ExactKeyOpts) string {
	return hashKey("exact", boardHash, opts)
}
