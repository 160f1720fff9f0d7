package progmodel

import "github.com/orizon-lang/regalloc-core/internal/lir"

// Copy is a directed edge between two allocnos (either end may be -1 to
// denote a read-from-literal or write-to-sink).
type Copy struct {
	ID int

	Src, Dst int // allocno IDs, or -1
	Freq int64

	Mode lir.Mode

	// SubstSrcHardRegno pins an early hard-reg substitution on the source
	// side.
	SubstSrcHardRegno int // -1 if none

	Secondary *SecondaryChange
}

// SecondaryChange records a copy's planned secondary reload.
type SecondaryChange struct {
	IntermClass int // target.RegClass, stored as int to avoid an import cycle with target
	IntermMode lir.Mode
	IntermRegno int // -1 if unassigned

	ScratchClass int
	ScratchMode lir.Mode
	ScratchRegno int // -1 if unassigned

	MemoryMode lir.Mode
	MemorySlotID int // -1 if none
	HasMemory bool

	// OccupiedHardRegs is the hard-reg set (bit per register, see
	// target.HardRegSet) this secondary plan currently consumes, read by
	// engine.prohibitedRegs and pass.secondaryProhibited. Stored as uint64
	// to avoid an import cycle.
	OccupiedHardRegs uint64
}

func (sc *SecondaryChange) Clone() *SecondaryChange {
	if sc == nil {
		return nil
	}
	cp := *sc
	return &cp
}

// NewCopy constructs a copy edge with no secondary plan yet.
func NewCopy(id, src, dst int, freq int64, mode lir.Mode) *Copy {
	return &Copy{ID: id, Src: src, Dst: dst, Freq: freq, Mode: mode, SubstSrcHardRegno: -1}
}
