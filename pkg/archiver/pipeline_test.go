package archiver

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/binsift/pkg/carver"
	"github.com/binsift/binsift/pkg/types"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// pngZipInput builds an input carving into a png record and a zip record.
func pngZipInput() []byte {
	input := append(append([]byte{}, pngMagic...), bytes.Repeat([]byte{0x11}, 50)...)
	input = append(input, []byte("PK\x03\x04")...)
	input = append(input, bytes.Repeat([]byte{0x22}, 100)...)
	return input
}

func collectEvents(emit *[]Event) EmitFunc {
	return func(ev Event) {
		*emit = append(*emit, ev)
	}
}

func terminalCount(events []Event) (completes, errors int) {
	for _, ev := range events {
		switch ev.Type {
		case EventComplete:
			completes++
		case EventError:
			errors++
		}
	}
	return
}

func TestPipeline_EventOrder(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()
	id := types.ComputeSourceID(raw)

	var events []Event
	p := NewPipeline(c.Carve, nil, collectEvents(&events))

	result, data, err := p.Run(id, raw, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, p.State())
	assert.Equal(t, id, result.SourceID)
	assert.Equal(t, int64(len(data)), result.ByteSize)

	require.Len(t, events, 6)
	assert.Equal(t, EventInfo, events[0].Type)
	assert.Equal(t, EventInfo, events[1].Type)
	assert.Contains(t, events[1].Message, "Found 2 files")

	// floor(i/total*100) per item, then the fixed 100% event.
	assert.Equal(t, EventProgress, events[2].Type)
	assert.Equal(t, 0, events[2].Percent)
	assert.Equal(t, EventProgress, events[3].Type)
	assert.Equal(t, 50, events[3].Percent)
	assert.Equal(t, EventProgress, events[4].Type)
	assert.Equal(t, 100, events[4].Percent)

	assert.Equal(t, EventComplete, events[5].Type)
	assert.Equal(t, result.ByteSize, events[5].Size)

	completes, errs := terminalCount(events)
	assert.Equal(t, 1, completes)
	assert.Equal(t, 0, errs)
}

func TestPipeline_ArchiveRoundTrip(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()
	carved := c.Carve(raw)
	require.Len(t, carved, 2)

	p := NewPipeline(c.Carve, nil, nil)
	_, data, err := p.Run(types.ComputeSourceID(raw), raw, []int{0, 1})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	for i, zf := range zr.File {
		assert.Equal(t, carved[i].Name, zf.Name)

		rc, err := zf.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		assert.Equal(t, carved[i].Data, content)
	}
}

func TestPipeline_EmptySelection(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()

	var events []Event
	p := NewPipeline(c.Carve, nil, collectEvents(&events))

	result, data, err := p.Run(types.ComputeSourceID(raw), raw, nil)
	require.NoError(t, err)

	// No per-item progress; the build resolves to an empty archive.
	require.Len(t, events, 4)
	assert.Equal(t, EventProgress, events[2].Type)
	assert.Equal(t, 100, events[2].Percent)
	assert.Equal(t, EventComplete, events[3].Type)

	zr, err := zip.NewReader(bytes.NewReader(data), result.ByteSize)
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}

func TestPipeline_OutOfRangeIndicesSkipped(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()

	p := NewPipeline(c.Carve, nil, nil)
	_, data, err := p.Run(types.ComputeSourceID(raw), raw, []int{0, 99})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 1)
}

func TestPipeline_DuplicateSelection(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()

	p := NewPipeline(c.Carve, nil, nil)
	_, data, err := p.Run(types.ComputeSourceID(raw), raw, []int{1, 1})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, zr.File[0].Name, zr.File[1].Name)
}

func TestPipeline_PersistFailure(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()

	var events []Event
	persist := func(types.ArchiveResult, []byte) error {
		return errors.New("disk full")
	}
	p := NewPipeline(c.Carve, persist, collectEvents(&events))

	_, _, err := p.Run(types.ComputeSourceID(raw), raw, []int{0})
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State())

	completes, errs := terminalCount(events)
	assert.Equal(t, 0, completes)
	assert.Equal(t, 1, errs)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "disk full")
}

func TestPipeline_PersistReceivesFinalBytes(t *testing.T) {
	c := carver.New(nil)
	raw := pngZipInput()
	id := types.ComputeSourceID(raw)

	var persisted []byte
	var persistedResult types.ArchiveResult
	persist := func(res types.ArchiveResult, data []byte) error {
		persistedResult = res
		persisted = append([]byte{}, data...)
		return nil
	}

	p := NewPipeline(c.Carve, persist, nil)
	result, data, err := p.Run(id, raw, []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, result, persistedResult)
	assert.Equal(t, data, persisted)
	assert.Equal(t, int64(len(persisted)), persistedResult.ByteSize)
}
