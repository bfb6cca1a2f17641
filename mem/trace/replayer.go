package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/mem/cache"
)

// A Simulator resolves data references. *cache.Engine is a Simulator.
type Simulator interface {
	Access(addr uint64) cache.Outcome
	Modify(addr uint64) (read, write cache.Outcome)
	Stats() cache.Stats
}

// ProgressFunc is called after every record the replayer consumes.
type ProgressFunc func(record Record, bytesRead int64)

// A Summary reports what a replay did.
type Summary struct {
	Stats cache.Stats

	// Records counts the records replayed by kind.
	Records map[Kind]uint64

	// Skipped counts records with an unknown operation.
	Skipped uint64

	// Truncated is set if the replay stopped at a malformed line.
	Truncated bool
}

// References returns the number of data references the replayed records
// make.
func (s Summary) References() uint64 {
	var n uint64
	for kind, count := range s.Records {
		n += uint64(kind.References()) * count
	}

	return n
}

// A Replayer feeds the records of a trace to a Simulator. Instruction fetches
// are dropped, loads and stores make one reference, and modifies make two.
type Replayer struct {
	simulator Simulator
	verbose   io.Writer
	logger    logrus.FieldLogger
	progress  ProgressFunc
}

// NewReplayer creates a Replayer that drives simulator.
func NewReplayer(simulator Simulator) *Replayer {
	return &Replayer{
		simulator: simulator,
		logger:    logrus.StandardLogger(),
	}
}

// WithVerboseOutput makes the replayer print the outcome of every data record
// to w.
func (p *Replayer) WithVerboseOutput(w io.Writer) *Replayer {
	p.verbose = w
	return p
}

// WithLogger sets the logger that receives warnings about the trace.
func (p *Replayer) WithLogger(logger logrus.FieldLogger) *Replayer {
	p.logger = logger
	return p
}

// WithProgress registers a function called after every record.
func (p *Replayer) WithProgress(progress ProgressFunc) *Replayer {
	p.progress = progress
	return p
}

// Replay consumes r until its end. A record with an unknown operation is
// skipped. Any other malformed line stops the replay without an error, as
// the records before it are still meaningful. Read failures are returned.
func (p *Replayer) Replay(r *Reader) (Summary, error) {
	summary := Summary{
		Records: make(map[Kind]uint64),
	}

loop:
	for {
		record, err := r.Next()

		var parseErr *ParseError

		switch {
		case errors.Is(err, io.EOF):
			break loop
		case errors.Is(err, ErrUnknownKind):
			p.logger.Warnf("Skipping %v", err)
			summary.Skipped++

			continue
		case errors.As(err, &parseErr):
			p.logger.Warnf("Stopping replay at %v", err)
			summary.Truncated = true

			break loop
		case err != nil:
			summary.Stats = p.simulator.Stats()
			return summary, err
		}

		err = p.replayRecord(record)
		if err != nil {
			summary.Stats = p.simulator.Stats()
			return summary, err
		}

		summary.Records[record.Kind]++

		if p.progress != nil {
			p.progress(record, r.BytesRead())
		}
	}

	summary.Stats = p.simulator.Stats()

	return summary, nil
}

// ReplayRecords feeds already parsed records to the simulator.
func (p *Replayer) ReplayRecords(records []Record) (Summary, error) {
	summary := Summary{
		Records: make(map[Kind]uint64),
	}

	for _, record := range records {
		if !record.Kind.IsKnown() {
			summary.Skipped++
			continue
		}

		err := p.replayRecord(record)
		if err != nil {
			summary.Stats = p.simulator.Stats()
			return summary, err
		}

		summary.Records[record.Kind]++
	}

	summary.Stats = p.simulator.Stats()

	return summary, nil
}

func (p *Replayer) replayRecord(record Record) error {
	var outcomes []cache.Outcome

	switch record.Kind {
	case KindInstruction:
		return nil
	case KindLoad, KindStore:
		outcomes = []cache.Outcome{p.simulator.Access(record.Address)}
	case KindModify:
		read, write := p.simulator.Modify(record.Address)
		outcomes = []cache.Outcome{read, write}
	}

	if p.verbose == nil {
		return nil
	}

	_, err := fmt.Fprint(p.verbose, record.String())
	for _, outcome := range outcomes {
		if err == nil {
			_, err = fmt.Fprintf(p.verbose, " %s", outcome)
		}
	}

	if err == nil {
		_, err = fmt.Fprintln(p.verbose)
	}

	if err != nil {
		return fmt.Errorf("writing verbose output: %w", err)
	}

	return nil
}
