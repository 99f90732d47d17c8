package store

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/helixflock/internal/dynamo"
)

// TraceRow is one particle on one frame.
type TraceRow struct {
	Frame    int     `csv:"frame"`
	Time     float64 `csv:"t"`
	Particle int     `csv:"particle"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
	VX       float64 `csv:"vx"`
	VY       float64 `csv:"vy"`
	VZ       float64 `csv:"vz"`
}

// TraceWriter is an observer that streams particle rows as CSV every
// `every` frames. The first write error stops further output and is
// reported by Err and Close.
type TraceWriter struct {
	w             io.Writer
	every         int
	headerWritten bool
	rows          []TraceRow
	written       int
	err           error
}

func NewTraceWriter(w io.Writer, every int) *TraceWriter {
	if every < 1 {
		every = 1
	}
	return &TraceWriter{w: w, every: every}
}

func (tw *TraceWriter) OnFrame(f dynamo.Frame) {
	if tw.err != nil || f.Index%tw.every != 0 {
		return
	}

	tw.rows = tw.rows[:0]
	for i, p := range f.Positions {
		row := TraceRow{Frame: f.Index, Time: f.Elapsed, Particle: i, X: p.X, Y: p.Y, Z: p.Z}
		if i < len(f.Velocities) {
			v := f.Velocities[i]
			row.VX, row.VY, row.VZ = v.X, v.Y, v.Z
		}
		tw.rows = append(tw.rows, row)
	}
	if len(tw.rows) == 0 {
		return
	}

	if !tw.headerWritten {
		if err := gocsv.Marshal(tw.rows, tw.w); err != nil {
			tw.err = fmt.Errorf("writing trace: %w", err)
			return
		}
		tw.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(tw.rows, tw.w); err != nil {
			tw.err = fmt.Errorf("writing trace: %w", err)
			return
		}
	}
	tw.written += len(tw.rows)
}

// Rows returns how many particle rows have been written.
func (tw *TraceWriter) Rows() int { return tw.written }

func (tw *TraceWriter) Err() error { return tw.err }

// Close closes the underlying writer if it is an io.Closer.
func (tw *TraceWriter) Close() error {
	if c, ok := tw.w.(io.Closer); ok {
		if err := c.Close(); err != nil && tw.err == nil {
			tw.err = err
		}
	}
	return tw.err
}

// ReadTrace parses a trace written by TraceWriter.
func ReadTrace(r io.Reader) ([]TraceRow, error) {
	var rows []TraceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return rows, nil
}
