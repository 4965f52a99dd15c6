package agentstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministicLength(t *testing.T) {
	id, err := Fingerprint("agent-1", 12345, "hola mundo")
	require.NoError(t, err)
	assert.Len(t, id, 64) // hex-encoded SHA-256
}

func TestFingerprintDiffersOnIdenticalInputDueToSalt(t *testing.T) {
	id1, err := Fingerprint("agent-1", 12345, "hola mundo")
	require.NoError(t, err)
	id2, err := Fingerprint("agent-1", 12345, "hola mundo")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestFingerprintDiffersOnDifferentContent(t *testing.T) {
	id1, err := Fingerprint("agent-1", 12345, "hola mundo")
	require.NoError(t, err)
	id2, err := Fingerprint("agent-1", 12345, "adios mundo")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}
