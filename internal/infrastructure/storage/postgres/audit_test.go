package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressRoundTrip(t *testing.T) {
	s, err := NewAuditService(nil, 64)
	require.NoError(t, err)

	big := []byte(`{"lines":"` + strings.Repeat("NON-SERIAL,", 50) + `"}`)
	entry := AuditEntry{Changes: append([]byte(nil), big...)}

	s.compress(&entry)
	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Changes)
	assert.NotEmpty(t, entry.ChangesCompressed)
	assert.Less(t, len(entry.ChangesCompressed), len(big))

	require.NoError(t, s.decompress(&entry))
	assert.Equal(t, big, []byte(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditService_SmallPayloadStaysPlain(t *testing.T) {
	s, err := NewAuditService(nil, 0)
	require.NoError(t, err)

	entry := AuditEntry{Changes: []byte(`{"units":2}`)}
	s.compress(&entry)

	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.Equal(t, `{"units":2}`, string(entry.Changes))
	require.NoError(t, s.decompress(&entry))
}
