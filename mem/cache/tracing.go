package cache

import (
	"fmt"

	"github.com/sarchlab/csim/sim"
)

// HookPosAccess is triggered after every reference is resolved. The detail
// of the hook context is an AccessDetail.
var HookPosAccess = &sim.HookPos{Name: "CacheAccess"}

// AccessDetail describes how one reference was resolved.
type AccessDetail struct {
	// Seq numbers the references processed by the engine, starting from 1.
	Seq        uint64
	Address    uint64
	Tag        uint64
	SetID      int
	WayID      int
	Outcome    Outcome
	EvictedTag uint64
}

func (d AccessDetail) String() string {
	s := fmt.Sprintf("#%d 0x%x set %d way %d tag 0x%x %s",
		d.Seq, d.Address, d.SetID, d.WayID, d.Tag, d.Outcome)

	if d.Outcome.IsEviction() {
		s += fmt.Sprintf(" (evicted tag 0x%x)", d.EvictedTag)
	}

	return s
}

func (e *Engine) traceAccess(detail AccessDetail) {
	if e.NumHooks() == 0 {
		return
	}

	ctx := sim.HookCtx{
		Domain: e,
		Pos:    HookPosAccess,
		Item:   e.name,
		Detail: detail,
	}

	e.InvokeHook(ctx)
}
