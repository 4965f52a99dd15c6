package agentstate

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint derives a collision-resistant message_id from the sending
// agent, a nanosecond timestamp, the content, and a random salt — the
// salt survives identical content sent at the same clock tick, which a
// pure hash of (agent, ts, content) could not.
func Fingerprint(agentID string, tsNanos int64, content string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("agentstate: failed to generate fingerprint salt: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(agentID))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", tsNanos)
	h.Write([]byte{0})
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write(salt)

	return hex.EncodeToString(h.Sum(nil)), nil
}
