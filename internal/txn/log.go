// Package txn is the append-only, per-field transaction log backing
// start_transaction/end_transaction/undo_transaction over the mutations
// performed by hwreg, memslot, progmodel and engine.
package txn

import (
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
)

// Kind tags which record variant an Entry holds — an explicit sum type
// in place of a discriminator-by-pointer-tag.
type Kind int

const (
	KindAllocno Kind = iota
	KindCopy
	KindMemSlotStart
)

// AllocnoSnapshot is the minimum state needed to restore one Allocno.
type AllocnoSnapshot struct {
	target *progmodel.Allocno

	hardRegno int
	memSlotID int
	useEquivConst bool

	useWithoutChange bool
	constPool bool
	intermRegno int
	intermSet []int
	possibleAlts progmodel.AltSet
	tiedAllocno int
	originalP bool
	elimination bool
	elimCandidateTo target.HardReg
	elimOffset int64
}

func snapshotAllocno(a *progmodel.Allocno) AllocnoSnapshot {
	return AllocnoSnapshot{
		target: a, hardRegno: a.HardRegno, memSlotID: a.MemSlotID, useEquivConst: a.UseEquivConst,
		useWithoutChange: a.UseWithoutChange, constPool: a.ConstPool,
		intermRegno: a.IntermEliminationRegno, intermSet: append([]int(nil), a.IntermEliminationSet...),
		possibleAlts: a.PossibleAlts, tiedAllocno: a.TiedAllocno, originalP: a.OriginalP, elimination: a.Elimination,
		elimCandidateTo: a.ElimCandidateTo, elimOffset: a.ElimOffset,
	}
}

// CopySnapshot is the entire mutable copy-state struct: when a
// SecondaryChange record is created or destroyed during the transaction,
// the log owns a deep copy.
type CopySnapshot struct {
	target *progmodel.Copy

	mode              lir.Mode
	substSrcHardRegno int
	secondary         *progmodel.SecondaryChange
}

func snapshotCopy(c *progmodel.Copy) CopySnapshot {
	return CopySnapshot{target: c, mode: c.Mode, substSrcHardRegno: c.SubstSrcHardRegno, secondary: c.Secondary.Clone()}
}

// MemSlotSnapshot captures a memory slot's mutable Start offset (size is
// immutable post-creation).
type MemSlotSnapshot struct {
	target *memslot.Slot
	start int
}

func snapshotMemSlot(s *memslot.Slot) MemSlotSnapshot {
	return MemSlotSnapshot{target: s, start: s.Start}
}

// Entry is one tagged-union log record.
type Entry struct {
	Kind Kind
	Allocno AllocnoSnapshot
	Copy CopySnapshot
	MemSlot MemSlotSnapshot
}

// frame is one start_transaction scope.
type frame struct {
	baseIndex int
	baseCost int
}

// Log is the LIFO stack of frames plus the single global log vector.
// It holds references to the subsystems whose hard-reg/memory-slot
// refcounts must be kept consistent with whatever a snapshot restores.
// Most hwreg counters are a deterministic function of committed
// Allocno.HardRegno/MemSlotID fields, so restoring an Allocno snapshot
// re-derives them; the interm/scratch registers a secondary-reload plan
// occupies are a function of Copy.Secondary instead, so restoring a Copy
// snapshot replays the matching MarkRelease/MarkAllocationMode calls too
// (see restoreCopySecondary).
type Log struct {
	entries []Entry
	frames []frame

	facade target.Facade
	hw *hwreg.Bookkeeping
	mem *memslot.Manager

	cost *int64 // points at the engine's global_allocation_cost
}

func New(facade target.Facade, hw *hwreg.Bookkeeping, mem *memslot.Manager, cost *int64) *Log {
	return &Log{facade: facade, hw: hw, mem: mem, cost: cost}
}

// InTransaction reports whether a start_transaction frame is currently
// open; components 2-9 guard their log-emitting Record* calls on this.
func (l *Log) InTransaction() bool { return len(l.frames) > 0 }

// Depth returns the current nesting depth (0 = no open transaction).
func (l *Log) Depth() int { return len(l.frames) }

// StartTransaction pushes a frame.
func (l *Log) StartTransaction() {
	l.frames = append(l.frames, frame{baseIndex: len(l.entries), baseCost: int(*l.cost)})
}

// EndTransaction commits: merges the innermost frame into its parent (the
// entries simply remain; only the frame marker is popped). At the
// outermost frame, the log vector is dropped.
func (l *Log) EndTransaction() {
	if len(l.frames) == 0 {
		panic("txn: end_transaction with no open transaction")
	}
	l.frames = l.frames[:len(l.frames)-1]
	if len(l.frames) == 0 {
		l.entries = nil
	}
}

// UndoTransaction walks the log vector downward from the innermost
// frame's base, restoring each snapshot in reverse order, then restores
// global_allocation_cost, then pops the frame.
func (l *Log) UndoTransaction() {
	if len(l.frames) == 0 {
		panic("txn: undo_transaction with no open transaction")
	}
	top := l.frames[len(l.frames)-1]

	for i := len(l.entries) - 1; i >= top.baseIndex; i-- {
		l.restore(l.entries[i])
	}
	l.entries = l.entries[:top.baseIndex]
	*l.cost = int64(top.baseCost)
	l.frames = l.frames[:len(l.frames)-1]
}

// RecordAllocno snapshots a's current state before the caller mutates it.
// No-op outside a transaction (components are expected to still mutate —
// only requires snapshotting "guarded by an if frame stack
// nonempty", not that mutation itself is gated).
func (l *Log) RecordAllocno(a *progmodel.Allocno) {
	if !l.InTransaction() {
		return
	}
	l.entries = append(l.entries, Entry{Kind: KindAllocno, Allocno: snapshotAllocno(a)})
}

func (l *Log) RecordCopy(c *progmodel.Copy) {
	if !l.InTransaction() {
		return
	}
	l.entries = append(l.entries, Entry{Kind: KindCopy, Copy: snapshotCopy(c)})
}

func (l *Log) RecordMemSlotStart(s *memslot.Slot) {
	if !l.InTransaction() {
		return
	}
	l.entries = append(l.entries, Entry{Kind: KindMemSlotStart, MemSlot: snapshotMemSlot(s)})
}

func (l *Log) restore(e Entry) {
	switch e.Kind {
	case KindAllocno:
		l.restoreAllocno(e.Allocno)
	case KindCopy:
		c := e.Copy.target
		l.restoreCopySecondary(c.Secondary, e.Copy.secondary)
		c.Mode = e.Copy.mode
		c.SubstSrcHardRegno = e.Copy.substSrcHardRegno
		c.Secondary = e.Copy.secondary
	case KindMemSlotStart:
		e.MemSlot.target.Start = e.MemSlot.start
	}
}

func (l *Log) restoreAllocno(s AllocnoSnapshot) {
	a := s.target

	if a.HardRegno != s.hardRegno {
		if a.HardRegno >= 0 {
			l.hw.MarkRelease(target.HardReg(a.HardRegno), nregs(l.facade, a))
		}
		a.HardRegno = s.hardRegno
		if a.HardRegno >= 0 {
			l.hw.MarkAllocationMode(target.HardReg(a.HardRegno), nregs(l.facade, a))
		}
	}

	a.MemSlotID = s.memSlotID
	a.UseEquivConst = s.useEquivConst
	a.UseWithoutChange = s.useWithoutChange
	a.ConstPool = s.constPool
	a.IntermEliminationRegno = s.intermRegno
	a.IntermEliminationSet = s.intermSet
	a.PossibleAlts = s.possibleAlts
	a.TiedAllocno = s.tiedAllocno
	a.OriginalP = s.originalP
	a.Elimination = s.elimination
	a.ElimCandidateTo = s.elimCandidateTo
	a.ElimOffset = s.elimOffset
}

func nregs(facade target.Facade, a *progmodel.Allocno) int {
	return facade.HardRegnoNregs(target.HardReg(a.HardRegno), a.Mode)
}

// restoreCopySecondary reconciles hwreg refcounts with a secondary-reload
// plan being restored. A register occupied in live but not in want was
// allocated during the transaction now being undone and must be released;
// a register occupied in want but not in live was released during that
// transaction and must be re-marked. secondary.Plan resolves a single
// mode for both the intermediate and scratch register of one plan, so
// IntermMode is the correct width for every occupied bit here.
func (l *Log) restoreCopySecondary(live, want *progmodel.SecondaryChange) {
	liveRegs, liveMode := occupiedHardRegs(live)
	wantRegs, wantMode := occupiedHardRegs(want)
	if liveRegs == wantRegs {
		return
	}
	mode := liveMode
	if mode.Size == 0 {
		mode = wantMode
	}
	for r := 0; r < hwreg.MaxHardRegs; r++ {
		reg := target.HardReg(r)
		switch {
		case liveRegs.Has(reg) && !wantRegs.Has(reg):
			l.hw.MarkRelease(reg, l.facade.HardRegnoNregs(reg, mode))
		case !liveRegs.Has(reg) && wantRegs.Has(reg):
			l.hw.MarkAllocationMode(reg, l.facade.HardRegnoNregs(reg, mode))
		}
	}
}

func occupiedHardRegs(sc *progmodel.SecondaryChange) (target.HardRegSet, lir.Mode) {
	if sc == nil {
		return 0, lir.Mode{}
	}
	return target.HardRegSet(sc.OccupiedHardRegs), sc.IntermMode
}
