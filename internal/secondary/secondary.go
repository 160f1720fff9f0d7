// Package secondary plans intermediate registers, scratch registers, or a
// secondary memory slot for copies whose endpoints require a cross-class
// or memory-to-memory move the target forbids directly.
package secondary

import (
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

// Planner owns no state of its own beyond its collaborators; every
// mutation it makes to a Copy or to hwreg/memslot goes through the log.
type Planner struct {
	Facade target.Facade
	Graph *progmodel.Graph
	HW *hwreg.Bookkeeping
	Mem *memslot.Manager
	Log *txn.Log

	// Prohibited is consulted for the hard-reg conflict set a candidate
	// intermediate/scratch register must avoid: the copy's own recorded
	// conflict set, plus the interm/scratch sets of every other currently
	// planned secondary reload belonging to an allocno-conflicting copy.
	Prohibited func(cp *progmodel.Copy) target.HardRegSet
}

// operandOf resolves a copy endpoint to the concrete lir.Operand the
// target facade needs to decide a secondary-reload class, synthesizing a
// minimal Operand from the allocno when no richer IR operand is on hand.
func operandOf(g *progmodel.Graph, allocnoID int) lir.Operand {
	if allocnoID < 0 {
		return lir.Operand{MatchedOperand: -1}
	}
	a := g.AllocnoByID(allocnoID)
	return lir.Operand{Mode: a.Mode, MatchedOperand: -1}
}

// Plan implements steps 1-8 for one copy.
func (p *Planner) Plan(cp *progmodel.Copy) bool {
	if !p.Facade.Caps().HasSecondaryReloads {
		return true
	}

	srcA, dstA := allocnoOrNil(p.Graph, cp.Src), allocnoOrNil(p.Graph, cp.Dst)

	// Step 1: choose the "in_p" side - the one already assigned a hard
	// register. If both are assigned to the same register, this is a
	// no-op.
	var assigned *progmodel.Allocno
	var inP bool
	switch {
	case srcA != nil && srcA.HardRegno >= 0 && dstA != nil && dstA.HardRegno >= 0:
		if srcA.HardRegno == dstA.HardRegno {
			p.Log.RecordCopy(cp)
			cp.Secondary = nil
			return true
		}
		assigned, inP = srcA, true
	case srcA != nil && srcA.HardRegno >= 0:
		assigned, inP = srcA, true
	case dstA != nil && dstA.HardRegno >= 0:
		assigned, inP = dstA, false
	default:
		// neither side is in a register yet; nothing to plan until one is.
		return true
	}

	mode := p.Graph.GetCopyMode(cp, func(m lir.Mode) bool { return p.Facade.HardRegnoModeOK(target.HardReg(assigned.HardRegno), m) })
	cl := p.Facade.RegnoRegClass(target.HardReg(assigned.HardRegno))

	other := dstA
	if !inP {
		other = srcA
	}
	otherOp := operandOf(p.Graph, allocnoIDOf(other))

	if other != nil && other.HardRegno >= 0 && other.HardRegno == assigned.HardRegno {
		p.Log.RecordCopy(cp)
		cp.Secondary = nil
		return true
	}

	var intermClass target.RegClass
	if inP {
		intermClass = p.Facade.SecondaryInputReloadClass(cl, mode, otherOp)
	} else {
		intermClass = p.Facade.SecondaryOutputReloadClass(cl, mode, otherOp)
	}

	if intermClass == target.NoRegs {
		p.Log.RecordCopy(cp)
		cp.Secondary = nil
		return true
	}

	intermConstraint, scratchConstraint, hasScratch, hasIcode := p.Facade.ReloadInsnConstraints(mode, inP)
	_ = intermConstraint

	prohibited := target.HardRegSet(0)
	if p.Prohibited != nil {
		prohibited = p.Prohibited(cp)
	}

	sc := &progmodel.SecondaryChange{
		IntermClass: int(intermClass), IntermMode: mode, IntermRegno: -1,
		ScratchClass: int(target.NoRegs), ScratchRegno: -1,
		MemorySlotID: -1,
	}

	if !hasIcode {
		return p.planMemory(cp, sc, intermClass, mode, other)
	}

	internReg, ok := p.findFreeReg(intermClass, prohibited)
	if !ok {
		return p.planMemory(cp, sc, intermClass, mode, other)
	}
	sc.IntermRegno = int(internReg)
	sc.OccupiedHardRegs = uint64(target.NewHardRegSet(internReg))
	p.HW.MarkAllocationMode(internReg, p.Facade.HardRegnoNregs(internReg, mode))

	if hasScratch {
		scratchClass, ok := p.Facade.ConstraintLetterClass(scratchConstraintLetter(scratchConstraint))
		if ok {
			scratchReg, ok := p.findFreeReg(scratchClass, prohibited.Union(target.NewHardRegSet(internReg)))
			if ok {
				sc.ScratchClass = int(scratchClass)
				sc.ScratchRegno = int(scratchReg)
				sc.OccupiedHardRegs |= uint64(target.NewHardRegSet(scratchReg))
				p.HW.MarkAllocationMode(scratchReg, p.Facade.HardRegnoNregs(scratchReg, mode))
			}
		}
	}

	p.Log.RecordCopy(cp)
	cp.Secondary = sc
	return true
}

func scratchConstraintLetter(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

func allocnoOrNil(g *progmodel.Graph, id int) *progmodel.Allocno {
	if id < 0 {
		return nil
	}
	return g.AllocnoByID(id)
}

func allocnoIDOf(a *progmodel.Allocno) int {
	if a == nil {
		return -1
	}
	return a.ID
}

// planMemory implements step 7: allocate a copy memory slot whenever the
// target's capabilities enable secondary memory (Facade.SecondaryMemoryNeeded
// is not consulted), refusing if the copy's source endpoint carries an
// eliminated reg (the engine must then try a different register).
func (p *Planner) planMemory(cp *progmodel.Copy, sc *progmodel.SecondaryChange, intermClass target.RegClass, mode lir.Mode, other *progmodel.Allocno) bool {
	if !p.Facade.Caps().NeedsSecondaryMemory {
		p.Log.RecordCopy(cp)
		cp.Secondary = nil
		return false
	}

	if srcA := allocnoOrNil(p.Graph, cp.Src); srcA != nil && srcA.Elimination {
		return false
	}

	align := p.Facade.SecondaryMemoryAlignment(intermClass, intermClass, mode)
	slot := p.Mem.AllocateForCopy(cp.ID, mode.Size, align)
	sc.MemorySlotID = slot.ID
	sc.HasMemory = true
	sc.MemoryMode = mode

	p.Log.RecordCopy(cp)
	cp.Secondary = sc
	return true
}

func (p *Planner) findFreeReg(class target.RegClass, prohibited target.HardRegSet) (target.HardReg, bool) {
	for _, r := range p.Facade.ClassHardRegs(class) {
		if prohibited.Has(r) {
			continue
		}
		if p.HW.RefCount(r) > 0 {
			continue
		}
		return r, true
	}
	return 0, false
}

// Unplan releases a copy's secondary resources (hard regs and/or memory
// slot), the inverse of Plan, used by the engine's unassign_allocno.
func (p *Planner) Unplan(cp *progmodel.Copy) {
	if cp.Secondary == nil {
		return
	}
	sc := cp.Secondary
	if sc.IntermRegno >= 0 {
		mode := sc.IntermMode
		p.HW.MarkRelease(target.HardReg(sc.IntermRegno), p.Facade.HardRegnoNregs(target.HardReg(sc.IntermRegno), mode))
	}
	if sc.ScratchRegno >= 0 {
		mode := sc.IntermMode
		p.HW.MarkRelease(target.HardReg(sc.ScratchRegno), p.Facade.HardRegnoNregs(target.HardReg(sc.ScratchRegno), mode))
	}
	if sc.HasMemory {
		p.Mem.DeallocateForCopy(cp.ID)
	}
	p.Log.RecordCopy(cp)
	cp.Secondary = nil
}
