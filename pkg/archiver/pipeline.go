// Package archiver streams selected carved files into a compressed zip
// archive, reporting progress as a strictly ordered event sequence.
package archiver

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/binsift/binsift/pkg/carver"
	"github.com/binsift/binsift/pkg/types"
)

// State tracks where an archive build is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateCounting
	StateWriting
	StateFinalizing
	StateCompleted
	StateFailed
)

// String implements Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCounting:
		return "counting"
	case StateWriting:
		return "writing"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CarveFunc re-derives the carved sequence from stored source bytes.
type CarveFunc func([]byte) []types.CarvedFile

// PersistFunc stores finalized archive bytes and their result record.
// It runs before the complete event so a storage failure surfaces as a
// terminal error event instead.
type PersistFunc func(types.ArchiveResult, []byte) error

// EmitFunc delivers one event to the consumer. Delivery is sequential:
// the pipeline does not start the next item until emit returns.
type EmitFunc func(Event)

// Pipeline builds one archive from a selection against freshly carved
// source bytes. A pipeline is single-use.
type Pipeline struct {
	carve   CarveFunc
	persist PersistFunc
	emit    EmitFunc
	state   State
}

// NewPipeline creates a pipeline. persist may be nil when the caller
// only wants the returned bytes.
func NewPipeline(carve CarveFunc, persist PersistFunc, emit EmitFunc) *Pipeline {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Pipeline{
		carve:   carve,
		persist: persist,
		emit:    emit,
		state:   StateIdle,
	}
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Run re-carves raw, resolves indices against the carved sequence, and
// writes the selection into a deflate-compressed zip, emitting events
// in order. It returns the finalized archive bytes alongside the
// result record. A zero-length selection produces an empty archive and
// still terminates with a complete event.
func (p *Pipeline) Run(id types.SourceID, raw []byte, indices []int) (types.ArchiveResult, []byte, error) {
	p.state = StateScanning
	p.emit(Info("Extracting files from binary..."))
	carved := p.carve(raw)

	p.state = StateCounting
	p.emit(Info(fmt.Sprintf("Found %d files", len(carved))))

	selected := carver.Select(carved, indices)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	p.state = StateWriting
	total := len(selected)
	for i, f := range selected {
		p.emit(Progress(i*100/total, fmt.Sprintf("Adding %s", f.Name)))

		w, err := zw.Create(f.Name)
		if err != nil {
			return p.fail(fmt.Errorf("creating archive entry %s: %w", f.Name, err))
		}
		if _, err := w.Write(f.Data); err != nil {
			return p.fail(fmt.Errorf("writing archive entry %s: %w", f.Name, err))
		}
	}

	p.state = StateFinalizing
	p.emit(Progress(100, "Archive creation complete"))

	if err := zw.Close(); err != nil {
		return p.fail(fmt.Errorf("finalizing archive: %w", err))
	}

	result := types.ArchiveResult{
		SourceID: id,
		ByteSize: int64(buf.Len()),
	}

	if p.persist != nil {
		if err := p.persist(result, buf.Bytes()); err != nil {
			return p.fail(fmt.Errorf("persisting archive: %w", err))
		}
	}

	p.state = StateCompleted
	p.emit(Complete(id, result.ByteSize))
	return result, buf.Bytes(), nil
}

// fail transitions to the terminal failed state and emits the single
// error event that ends the sequence.
func (p *Pipeline) fail(err error) (types.ArchiveResult, []byte, error) {
	p.state = StateFailed
	p.emit(Errorf("%v", err))
	return types.ArchiveResult{}, nil, err
}
