// Package hwreg tracks which physical registers are currently allocated
// and which are ever-live, and maintains elimination offsets.
package hwreg

import (
	"fmt"

	"github.com/orizon-lang/regalloc-core/internal/target"
)

// MaxHardRegs bounds the tracked register space; generous for any target
// in the retrieval pack (the generic facade uses regnos 0..23).
const MaxHardRegs = 64

// EliminatePair is a (from-virtual-regno, to-real-regno) mapping with its
// current offset — a reg-eliminate entry.
type EliminatePair struct {
	From string // virtual register name, e.g. "%fp"
	To target.HardReg
	Offset int64
}

// Bookkeeping owns the per-hard-reg reference counts, ever-live flags, and
// elimination table.
type Bookkeeping struct {
	facade target.Facade

	refcount [MaxHardRegs]int
	everLive [MaxHardRegs]bool

	eliminate []EliminatePair

	// FramePointerOffset and StackPointerOffset hold frame/stack pointer
	// offsets for callers; nothing in this module reads or updates them
	// (eliminate.Eliminator takes the stack size from Site.SimulatedStackSize).
	FramePointerOffset int64
	StackPointerOffset int64
}

func New(facade target.Facade) *Bookkeeping {
	return &Bookkeeping{facade: facade}
}

// MarkAllocationMode increments counters for all hard regs covered by a
// value occupying nregs consecutive registers starting at regno; if a
// counter transitions 0->1 for a callee-saved reg, it marks it ever-live.
func (b *Bookkeeping) MarkAllocationMode(regno target.HardReg, nregs int) {
	for i := 0; i < nregs; i++ {
		r := regno + target.HardReg(i)
		if int(r) >= MaxHardRegs {
			panic(fmt.Sprintf("hwreg: regno %d out of range", r))
		}
		b.refcount[r]++
		if b.refcount[r] == 1 && b.facade.CalleeSaved(r) {
			b.everLive[r] = true
		}
	}
}

// MarkRelease is the inverse of MarkAllocationMode.
func (b *Bookkeeping) MarkRelease(regno target.HardReg, nregs int) {
	for i := 0; i < nregs; i++ {
		r := regno + target.HardReg(i)
		if b.refcount[r] <= 0 {
			panic(fmt.Sprintf("hwreg: negative refcount for regno %d", r))
		}
		b.refcount[r]--
	}
}

// RefCount returns the current reference count for regno.
func (b *Bookkeeping) RefCount(regno target.HardReg) int { return b.refcount[regno] }

// EverLive reports whether regno has ever been allocated this pass.
func (b *Bookkeeping) EverLive(regno target.HardReg) bool { return b.everLive[regno] }

// SetEverLiveInitial seeds ever-live state from previously-live regs
// (e.g. incoming parameter registers), forces hardFramePointer live when
// frame-pointer elimination is disallowed, and forces every callee-saved
// register live when the function may be entered via nonlocal goto.
func (b *Bookkeeping) SetEverLiveInitial(preLive []target.HardReg, hardFramePointer target.HardReg, disallowFPElim bool, nonlocalGotoTarget bool) {
	for _, r := range preLive {
		b.everLive[r] = true
	}
	if disallowFPElim {
		b.everLive[hardFramePointer] = true
	}
	if nonlocalGotoTarget {
		for r := 0; r < MaxHardRegs; r++ {
			if b.facade.CalleeSaved(target.HardReg(r)) {
				b.everLive[r] = true
			}
		}
	}
}

// RegisterEliminable records a candidate elimination pair; order is
// preference order (first candidate tried first).
func (b *Bookkeeping) RegisterEliminable(pair EliminatePair) {
	b.eliminate = append(b.eliminate, pair)
}

// EliminationCandidates returns the candidates registered for a given
// virtual register, in registration order.
func (b *Bookkeeping) EliminationCandidates(virtualRegno string) []EliminatePair {
	var out []EliminatePair
	for _, e := range b.eliminate {
		if e.From == virtualRegno {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot/Restore below are for testing/debugging only; the transaction
// log itself never needs them. Most MarkAllocationMode/MarkRelease calls
// are paired 1:1 with an allocno assign/unassign that is itself logged
// and replayed in reverse; the remainder come from secondary-reload
// planning (see internal/secondary.Plan), which are paired with a
// Copy.Secondary log entry instead and replayed by
// txn.Log.restoreCopySecondary. Either way every Mark* call has a
// corresponding replay on undo, so refcount/everLive never need their own
// log entries — see DESIGN.md.

// Snapshot captures the mutable counters for testing/debugging only.
type Snapshot struct {
	refcount [MaxHardRegs]int
	everLive [MaxHardRegs]bool
}

func (b *Bookkeeping) Snapshot() Snapshot {
	return Snapshot{refcount: b.refcount, everLive: b.everLive}
}

func (b *Bookkeeping) Restore(s Snapshot) {
	b.refcount = s.refcount
	b.everLive = s.everLive
}
