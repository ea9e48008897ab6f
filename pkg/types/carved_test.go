package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManifest(t *testing.T) {
	id := ComputeSourceID([]byte("source"))
	carved := []CarvedFile{
		{Name: "extracted_aaaa1111.png", Tag: "png", Offset: 0, Size: 120, Data: make([]byte, 120)},
		{Name: "extracted_bbbb2222.zip", Tag: "zip", Offset: 120, Size: 80, Data: make([]byte, 80)},
	}

	m := NewManifest(id, "firmware.bin", 200, carved)

	assert.Equal(t, id, m.SourceID)
	assert.Equal(t, "firmware.bin", m.OriginalName)
	assert.Equal(t, 200, m.TotalSize)
	assert.Equal(t, 2, m.ExtractedCount)
	require.Len(t, m.Files, 2)
	assert.Equal(t, ManifestEntry{Name: "extracted_aaaa1111.png", Size: 120, Offset: 0, Tag: "png"}, m.Files[0])
	assert.Equal(t, ManifestEntry{Name: "extracted_bbbb2222.zip", Size: 80, Offset: 120, Tag: "zip"}, m.Files[1])
}

func TestManifest_JSONOmitsRawBytes(t *testing.T) {
	carved := []CarvedFile{{Name: "a.bin", Tag: "bin", Size: 3, Data: []byte{1, 2, 3}}}
	m := NewManifest(ComputeSourceID(nil), "a", 3, carved)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Manifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m.Files, decoded.Files)
	assert.NotContains(t, string(data), `"data"`)
}
