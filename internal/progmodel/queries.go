package progmodel

import "github.com/orizon-lang/regalloc-core/internal/lir"

// AllocnoMode returns the allocno's own mode.
func (g *Graph) AllocnoMode(a *Allocno) lir.Mode { return a.Mode }

// AllocationMode returns a.Mode for every allocno, the same as
// AllocnoMode. This core keeps no SUBREG-container mode metadata, so a
// nonzero SubregByte does not widen the result to a container's outer mode.
func (g *Graph) AllocationMode(a *Allocno) lir.Mode {
	return a.Mode
}

// GetAllocnoHardRegno translates "the first register of the whole
// container" into "the register occupying just the allocno", honoring
// SubregByte.
func GetAllocnoHardRegno(a *Allocno, containerHardRegno int, containerRegSize int) int {
	if a.Kind != KindInsnOperand || a.Loc.SubregByte == 0 {
		return containerHardRegno
	}
	// Each register unit is assumed 8 bytes wide, matching the generic
	// target's word size; containerHardRegno already names the first
	// register of the container, so the allocno's own register is offset
	// by SubregByte/8 registers.
	return containerHardRegno + a.Loc.SubregByte/8
}

// GetAllocnoRegHardRegno is the inverse of GetAllocnoHardRegno: given the
// register actually occupying the allocno, recover the register covering
// the whole container.
func GetAllocnoRegHardRegno(a *Allocno, allocnoHardRegno int) int {
	if a.Kind != KindInsnOperand || a.Loc.SubregByte == 0 {
		return allocnoHardRegno
	}
	return allocnoHardRegno - a.Loc.SubregByte/8
}

// GetMaximalPartStartHardRegno returns the first hard-reg of the
// container's occupation for an allocno that sits inside a larger
// container.
func GetMaximalPartStartHardRegno(a *Allocno, hardRegno int) int {
	return GetAllocnoRegHardRegno(a, hardRegno)
}

// CopySide names which endpoint of a copy is being resolved.
type CopySide int

const (
	SideSrc CopySide = iota
	SideDst
)

// CopyLoc is the resolved concrete machine location of one side of a copy.
type CopyLoc struct {
	Mode      lir.Mode
	HardRegno int // -1 if not in a register
	MemSlotID int // -1 if not in memory
	Offset    int
}

// GetCopyLoc resolves one side of cp to its concrete location, taking
// SubregByte and any SubstSrcHardRegno pin into account.
func (g *Graph) GetCopyLoc(cp *Copy, side CopySide) CopyLoc {
	id := cp.Dst
	if side == SideSrc {
		id = cp.Src
	}
	if id < 0 {
		return CopyLoc{Mode: cp.Mode, HardRegno: -1, MemSlotID: -1}
	}

	a := g.Allocnos[id]
	loc := CopyLoc{Mode: a.Mode, HardRegno: a.HardRegno, MemSlotID: a.MemSlotID, Offset: a.Loc.SubregByte}

	if side == SideSrc && cp.SubstSrcHardRegno >= 0 {
		loc.HardRegno = cp.SubstSrcHardRegno
	}
	return loc
}

// GetCopyMode chooses the wider of the two endpoints' modes subject to
// hardRegnoModeOK, falling through to the allocno mode when neither
// operand narrows it further. modeOK is the
// target's HARD_REGNO_MODE_OK query, threaded in to avoid an import cycle
// on target from progmodel.
func (g *Graph) GetCopyMode(cp *Copy, modeOK func(lir.Mode) bool) lir.Mode {
	var src, dst lir.Mode
	if cp.Src >= 0 {
		src = g.Allocnos[cp.Src].Mode
	}
	if cp.Dst >= 0 {
		dst = g.Allocnos[cp.Dst].Mode
	}

	wide := src
	if dst.Size > wide.Size {
		wide = dst
	}
	if wide.Size == 0 {
		wide = cp.Mode
	}
	if modeOK == nil || modeOK(wide) {
		return wide
	}
	// fall through to the narrower of the two, then to cp.Mode.
	narrow := src
	if dst.Size > 0 && (narrow.Size == 0 || dst.Size < narrow.Size) {
		narrow = dst
	}
	if narrow.Size > 0 && (modeOK == nil || modeOK(narrow)) {
		return narrow
	}
	return cp.Mode
}
