// Package recorder captures what a race shows its presenters so it can be
// written out and replayed later.
package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"derby-go/games/horse_racing"

	"github.com/klauspost/compress/zstd"
)

// EventKind names what an Event carries.
type EventKind string

const (
	KindRoster     EventKind = "roster"
	KindPhase      EventKind = "phase"
	KindSettlement EventKind = "settlement"
)

// Event is one presenter call. Frame counts roster frames since the last
// phase change.
type Event struct {
	Seq        int                      `json:"seq"`
	Kind       EventKind                `json:"kind"`
	Frame      int                      `json:"frame,omitempty"`
	Horses     []horse_racing.HorseView `json:"horses,omitempty"`
	Phase      horse_racing.Phase       `json:"phase,omitempty"`
	Settlement *horse_racing.Settlement `json:"settlement,omitempty"`
}

var (
	ErrEmptyReplay = errors.New("replay has no events")
	ErrStreamed    = errors.New("events were streamed, not kept")
)

// RaceRecorder is a presenter that keeps every call it receives. One built by
// NewStream writes each call out as it arrives and keeps nothing.
type RaceRecorder struct {
	mu     sync.Mutex
	events []Event
	seq    int
	frame  int

	zw        *zstd.Encoder
	enc       *json.Encoder
	streamErr error
}

func New() *RaceRecorder {
	return &RaceRecorder{}
}

// NewStream returns a recorder that encodes events straight into w.
// Close must be called to flush the compressed stream.
func NewStream(w io.Writer) (*RaceRecorder, error) {
	zw, err := newEncoder(w)
	if err != nil {
		return nil, err
	}
	return &RaceRecorder{zw: zw, enc: json.NewEncoder(zw)}, nil
}

func newEncoder(w io.Writer) (*zstd.Encoder, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return zw, nil
}

func (r *RaceRecorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Seq = r.seq
	r.seq++
	if r.zw == nil {
		r.events = append(r.events, e)
		return
	}
	if r.streamErr == nil {
		if err := r.enc.Encode(e); err != nil {
			r.streamErr = fmt.Errorf("encode event %d: %w", e.Seq, err)
		}
	}
}

// Close flushes a streaming recorder and reports the first write error.
// It does nothing for a recorder built with New.
func (r *RaceRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.zw == nil {
		return nil
	}
	err := r.zw.Close()
	if r.streamErr != nil {
		return r.streamErr
	}
	if err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

func (r *RaceRecorder) ShowRoster(horses []horse_racing.HorseView) {
	r.mu.Lock()
	r.frame++
	frame := r.frame
	r.mu.Unlock()
	cp := append([]horse_racing.HorseView(nil), horses...)
	r.add(Event{Kind: KindRoster, Frame: frame, Horses: cp})
}

func (r *RaceRecorder) ShowPhase(phase horse_racing.Phase) {
	r.mu.Lock()
	r.frame = 0
	r.mu.Unlock()
	r.add(Event{Kind: KindPhase, Phase: phase})
}

func (r *RaceRecorder) ShowSettlement(s horse_racing.Settlement) {
	r.add(Event{Kind: KindSettlement, Settlement: &s})
}

// Events returns a copy of everything recorded so far.
func (r *RaceRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Len is the number of recorded events.
func (r *RaceRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// WriteTo writes the events as zstd-compressed JSON lines.
func (r *RaceRecorder) WriteTo(w io.Writer) (int64, error) {
	if r.zw != nil {
		return 0, ErrStreamed
	}
	events := r.Events()
	cw := &countingWriter{w: w}
	zw, err := newEncoder(cw)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(zw)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			_ = zw.Close()
			return cw.n, fmt.Errorf("encode event %d: %w", e.Seq, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close zstd writer: %w", err)
	}
	return cw.n, nil
}

// SaveFile writes the replay to path.
func (r *RaceRecorder) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create replay: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadReplay decodes a replay written by WriteTo.
func ReadReplay(rd io.Reader) ([]Event, error) {
	zr, err := zstd.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	var events []Event
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events), err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrEmptyReplay
	}
	return events, nil
}

// Settlements picks the settled races out of a replay.
func Settlements(events []Event) []horse_racing.Settlement {
	var out []horse_racing.Settlement
	for _, e := range events {
		if e.Kind == KindSettlement && e.Settlement != nil {
			out = append(out, *e.Settlement)
		}
	}
	return out
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
