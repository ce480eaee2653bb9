package criteria

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Snapshot returns a deterministic hash of every param. Two criteria with the
// same snapshot compile to the same statement.
func (c *Criteria) Snapshot() string {
	data, err := json.Marshal(struct {
		Kind   Kind   `json:"kind"`
		Params Params `json:"params"`
	}{c.Kind, c.Params})
	if err != nil {
		data = []byte(fmt.Sprintf("%s:%#v", c.Kind, c.Params))
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
