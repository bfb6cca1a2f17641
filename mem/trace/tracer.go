package trace

import (
	"fmt"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim"
)

// Table names used by the DBTracer.
const (
	AccessTable  = "cache_accesses"
	SummaryTable = "cache_summary"
)

// AccessEntry is a row of the access table. Addresses and tags are stored as
// hex strings since SQLite integers are signed.
type AccessEntry struct {
	Seq        uint64
	Cache      string
	Address    string
	Tag        string
	SetID      int
	WayID      int
	Outcome    string
	EvictedTag string
}

// SummaryEntry is a row of the summary table.
type SummaryEntry struct {
	Cache     string
	SetBits   int
	BlockBits int
	Ways      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// A DBTracer is a hook that records every cache access into a database.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the tables it writes.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTable, AccessEntry{})
	t.dataRecorder.CreateTable(SummaryTable, SummaryEntry{})

	return t
}

// Func records the access carried by the hook context.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	detail, ok := ctx.Detail.(cache.AccessDetail)
	if !ok {
		return
	}

	name, _ := ctx.Item.(string)

	entry := AccessEntry{
		Seq:     detail.Seq,
		Cache:   name,
		Address: hex(detail.Address),
		Tag:     hex(detail.Tag),
		SetID:   detail.SetID,
		WayID:   detail.WayID,
		Outcome: detail.Outcome.String(),
	}

	if detail.Outcome.IsEviction() {
		entry.EvictedTag = hex(detail.EvictedTag)
	}

	t.dataRecorder.InsertData(AccessTable, entry)
}

// RecordSummary writes the final counters of a cache.
func (t *DBTracer) RecordSummary(
	name string,
	config cache.Config,
	stats cache.Stats,
) {
	t.dataRecorder.InsertData(SummaryTable, SummaryEntry{
		Cache:     name,
		SetBits:   config.SetBits,
		BlockBits: config.BlockBits,
		Ways:      config.Ways,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
	})
	t.dataRecorder.Flush()
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
