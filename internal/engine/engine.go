// Package engine implements the public assign/unassign operations over
// allocnos and tied allocno pairs — the allocation core every other
// component exists to serve.
package engine

import (
	"github.com/orizon-lang/regalloc-core/internal/constraint"
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/secondary"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

// Engine owns every collaborator the assign/unassign primitives touch.
// It holds no allocation decisions of its own; global_allocation_cost is
// the single piece of derived state it maintains directly.
type Engine struct {
	Facade target.Facade
	Graph *progmodel.Graph
	HW *hwreg.Bookkeeping
	Mem *memslot.Manager
	Eval *constraint.Evaluator
	Sec *secondary.Planner
	Log *txn.Log

	Cost int64

	// EquivalentRTL, when non-empty for a pseudo regno, names a source-
	// provided equivalent memory location.
	EquivalentRTL func(regno int) (rtl string, size int)
}

// GlobalAllocationCost reports the running sum of per-allocno costs.
func (e *Engine) GlobalAllocationCost() int64 { return e.Cost }

// AssignAllocno implements assign_allocno: dispatch to the
// tied-pair path when a has a matched-operand partner, else assign alone.
func (e *Engine) AssignAllocno(a *progmodel.Allocno, class target.RegClass, possibleRegs target.HardRegSet, startHint target.HardReg) bool {
	if a.TiedAllocno >= 0 {
		dup := e.Graph.AllocnoByID(a.TiedAllocno)
		if e.AssignAllocnoPair(a, dup, class, possibleRegs, startHint) {
			return true
		}
		return e.AssignAllocnoPair(dup, a, class, possibleRegs, startHint)
	}
	return e.AssignOneAllocno(a, class, possibleRegs, startHint)
}

// AssignAllocnoPair tries to give original and duplicate a single shared
// container: a hard-reg pair, a memory pair sharing a CAN and offset, or
// an identical-immediate pair. On failure it undoes its own nested
// transaction, leaving engine state as it was before the call.
func (e *Engine) AssignAllocnoPair(original, duplicate *progmodel.Allocno, class target.RegClass, possibleRegs target.HardRegSet, startHint target.HardReg) bool {
	e.Log.StartTransaction()

	if !e.AssignOneAllocno(original, class, possibleRegs, startHint) {
		e.Log.UndoTransaction()
		return false
	}

	if !e.reduceToIdentical(original, duplicate) {
		e.Log.UndoTransaction()
		return false
	}

	e.Log.EndTransaction()
	return true
}

// reduceToIdentical makes duplicate share original's container exactly:
// same hard-regno, or same CAN and memory offset, or the same equivalent
// constant — never an independent assignment of the two ends.
func (e *Engine) reduceToIdentical(original, duplicate *progmodel.Allocno) bool {
	e.Log.RecordAllocno(duplicate)

	switch {
	case original.HardRegno >= 0:
		nregs := e.Facade.HardRegnoNregs(target.HardReg(original.HardRegno), duplicate.Mode)
		if !e.Facade.HardRegnoModeOK(target.HardReg(original.HardRegno), duplicate.Mode) {
			return false
		}
		duplicate.HardRegno = original.HardRegno
		e.HW.MarkAllocationMode(target.HardReg(original.HardRegno), nregs)
		duplicate.OriginalP = false
		original.OriginalP = true
		return e.planSecondaryFor(duplicate)

	case original.UseEquivConst:
		duplicate.UseEquivConst = true
		duplicate.EquivConstValue = original.EquivConstValue
		return true

	case original.MemSlotID >= 0 && duplicate.CAN == original.CAN:
		duplicate.MemSlotID = original.MemSlotID
		return true

	default:
		return false
	}
}

// AssignOneAllocno implements assign_one_allocno's three
// sub-cases, selected by class.
func (e *Engine) AssignOneAllocno(a *progmodel.Allocno, class target.RegClass, possibleRegs target.HardRegSet, startHint target.HardReg) bool {
	switch class {
	case target.LimRegClasses:
		return e.assignMemoryless(a)
	case target.NoRegs:
		return e.assignMemory(a)
	default:
		return e.assignHardReg(a, class, possibleRegs, startHint)
	}
}

func (e *Engine) assignMemoryless(a *progmodel.Allocno) bool {
	e.Log.RecordAllocno(a)
	if a.EquivConstValue != "" {
		a.UseEquivConst = true
	} else {
		a.UseWithoutChange = true
	}
	e.Cost += e.costUnassignedOrScratch(a)
	return e.planSecondaryFor(a)
}

// assignMemory implements the NO_REGS case: allocate a memory slot,
// refusing when a is involved in an elimination (memory cannot hold an
// eliminated-reg use).
func (e *Engine) assignMemory(a *progmodel.Allocno) bool {
	if a.Elimination {
		return false
	}

	e.Log.RecordAllocno(a)

	if a.Kind == progmodel.KindInsnOperand && a.EquivConstValue != "" {
		a.ConstPool = true
		return true
	}

	can := a.CAN
	if can < 0 {
		can = a.ID
	}

	var rtl string
	var rtlSize int
	if e.EquivalentRTL != nil && a.Regno >= 0 {
		rtl, rtlSize = e.EquivalentRTL(a.Regno)
	}

	size := e.Facade.HardRegnoNregs(0, a.Mode) * 8
	slot := e.Mem.AllocateForCAN(can, size, a.Mode.Size, rtl, rtlSize)
	a.MemSlotID = slot.ID

	e.Cost += int64(e.Facade.MemoryMoveCost(a.Mode, 0, true))
	return true
}

// assignHardReg implements the hard-reg case: scan preferred candidates
// (those matching a same-regno conflict partner's hard-reg) then the
// class's registers in order, checking each via checkHardReg; on
// success, plan secondary reloads on every incident copy, rolling back
// and continuing the scan on any secondary-planning failure.
func (e *Engine) assignHardReg(a *progmodel.Allocno, class target.RegClass, possibleRegs target.HardRegSet, startHint target.HardReg) bool {
	prohibited := e.prohibitedRegs(a)

	var candidates []target.HardReg
	if startHint >= 0 {
		candidates = append(candidates, startHint)
	}
	candidates = append(candidates, e.preferredCandidates(a, class, possibleRegs, prohibited)...)
	candidates = append(candidates, e.Facade.ClassHardRegs(class)...)

	tried := target.HardRegSet(0)
	for _, r := range candidates {
		if tried.Has(r) {
			continue
		}
		tried = tried.With(r)
		if prohibited.Has(r) || !possibleRegs.Has(r) {
			continue
		}
		if !e.CheckHardRegnoForA(a, r, possibleRegs) {
			continue
		}

		e.Log.StartTransaction()
		e.Log.RecordAllocno(a)

		nregs := e.Facade.HardRegnoNregs(r, a.Mode)
		a.HardRegno = int(r)
		e.HW.MarkAllocationMode(r, nregs)

		if !e.planSecondaryFor(a) {
			e.Log.UndoTransaction()
			continue
		}

		e.Cost += e.costHardReg(a)
		e.Log.EndTransaction()
		return true
	}

	return false
}

// CheckHardRegnoForA implements check_hard_regno_for_a:
// true iff assign_one_allocno would succeed for the hard-reg case at r
// without any side effect.
func (e *Engine) CheckHardRegnoForA(a *progmodel.Allocno, r target.HardReg, possibleRegs target.HardRegSet) bool {
	if !possibleRegs.Has(r) {
		return false
	}
	if !e.Facade.HardRegnoModeOK(r, a.Mode) {
		return false
	}
	nregs := e.Facade.HardRegnoNregs(r, a.Mode)
	for i := 0; i < nregs; i++ {
		if e.HW.RefCount(r+target.HardReg(i)) > 0 && e.conflictsOccupy(a, r+target.HardReg(i)) {
			return false
		}
	}
	if a.Kind == progmodel.KindInsnOperand && len(a.Op.Constraints) > 0 {
		st := constraint.State{HardRegno: int(r)}
		if !e.Eval.CheckHardRegnoMemoryOnConstraint(e.Graph, e.insnOperandsOf(a), a, st, nil) {
			return false
		}
	}
	return true
}

func (e *Engine) conflictsOccupy(a *progmodel.Allocno, r target.HardReg) bool {
	for _, cid := range a.ConflictVec {
		c := e.Graph.AllocnoByID(cid)
		if c.HardRegno < 0 {
			continue
		}
		nregs := e.Facade.HardRegnoNregs(target.HardReg(c.HardRegno), c.Mode)
		for i := 0; i < nregs; i++ {
			if target.HardReg(c.HardRegno)+target.HardReg(i) == r {
				return true
			}
		}
	}
	return false
}

// prohibitedRegs collects the conflict hard-regs from conflict_vec and
// the intersected intermediate/scratch sets of copies in
// copy_conflict_vec, adjusted for call-crossing (union with
// call_used_reg_set).
func (e *Engine) prohibitedRegs(a *progmodel.Allocno) target.HardRegSet {
	var s target.HardRegSet
	for _, cid := range a.ConflictVec {
		c := e.Graph.AllocnoByID(cid)
		if c.HardRegno < 0 {
			continue
		}
		nregs := e.Facade.HardRegnoNregs(target.HardReg(c.HardRegno), c.Mode)
		for i := 0; i < nregs; i++ {
			s = s.With(target.HardReg(c.HardRegno) + target.HardReg(i))
		}
	}

	for _, cpid := range a.CopyConflictVec {
		cp := e.Graph.CopyByID(cpid)
		if cp.Secondary != nil {
			s = s.Union(target.HardRegSet(cp.Secondary.OccupiedHardRegs))
		}
	}

	if a.CallCrossing {
		for r := 0; r < hwreg.MaxHardRegs; r++ {
			if e.Facade.CallUsed(target.HardReg(r)) {
				s = s.With(target.HardReg(r))
			}
		}
	}

	return s
}

// preferredCandidates returns, in order, the hard-reg of every conflict
// partner sharing a's regno (a copy-coalescing preference), filtered to
// class/possibleRegs.
func (e *Engine) preferredCandidates(a *progmodel.Allocno, class target.RegClass, possibleRegs target.HardRegSet, prohibited target.HardRegSet) []target.HardReg {
	var out []target.HardReg
	classRegs := target.HardRegSet(0)
	for _, r := range e.Facade.ClassHardRegs(class) {
		classRegs = classRegs.With(r)
	}

	for _, cid := range a.ConflictVec {
		c := e.Graph.AllocnoByID(cid)
		if c.Regno != a.Regno || c.HardRegno < 0 {
			continue
		}
		r := target.HardReg(c.HardRegno)
		if classRegs.Has(r) && possibleRegs.Has(r) && !prohibited.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) planSecondaryFor(a *progmodel.Allocno) bool {
	ok := true
	for _, cpid := range incidentCopies(e.Graph, a) {
		cp := e.Graph.CopyByID(cpid)
		if !e.Sec.Plan(cp) {
			ok = false
		}
	}
	return ok
}

func incidentCopies(g *progmodel.Graph, a *progmodel.Allocno) []int {
	var out []int
	for _, cp := range g.Copies {
		if cp.Src == a.ID || cp.Dst == a.ID {
			out = append(out, cp.ID)
		}
	}
	return out
}

// insnOperandsOf collects every INSN_ALLOCNO sharing a's instruction
// index, keyed by allocno ID, for the constraint evaluator's pairwise
// intersection across one instruction's operands.
func (e *Engine) insnOperandsOf(a *progmodel.Allocno) map[int]lir.Operand {
	out := map[int]lir.Operand{a.ID: a.Op}
	for _, other := range e.Graph.Allocnos {
		if other.Kind != progmodel.KindInsnOperand || other.ID == a.ID {
			continue
		}
		if other.Loc.InsnIndex == a.Loc.InsnIndex {
			out[other.ID] = other.Op
		}
	}
	return out
}

// UnassignAllocno implements unassign_allocno: mirror of
// assign; decrements cost, releases slot or hard-reg bookkeeping, runs
// secondary unplan on incident copies.
func (e *Engine) UnassignAllocno(a *progmodel.Allocno) {
	e.Log.RecordAllocno(a)

	for _, cpid := range incidentCopies(e.Graph, a) {
		cp := e.Graph.CopyByID(cpid)
		e.Sec.Unplan(cp)
	}

	switch {
	case a.HardRegno >= 0:
		nregs := e.Facade.HardRegnoNregs(target.HardReg(a.HardRegno), a.Mode)
		e.HW.MarkRelease(target.HardReg(a.HardRegno), nregs)
		e.Cost -= e.costHardReg(a)
		a.HardRegno = -1

	case a.MemSlotID >= 0 && !a.ConstPool:
		can := a.CAN
		if can < 0 {
			can = a.ID
		}
		e.Mem.DeallocateForCAN(can)
		e.Cost -= int64(e.Facade.MemoryMoveCost(a.Mode, 0, true))
		a.MemSlotID = -1

	case a.ConstPool:
		a.ConstPool = false

	case a.UseEquivConst || a.UseWithoutChange:
		e.Cost -= e.costUnassignedOrScratch(a)
		a.UseEquivConst = false
		a.UseWithoutChange = false
	}
}

// costHardReg implements cost(a) for the hard-reg case:
// pseudo allocnos sum pseudo_reg_copy_cost over incident copies with
// src != dst; INSN_ALLOCNOs derive cost from their container location.
func (e *Engine) costHardReg(a *progmodel.Allocno) int64 {
	if a.Kind == progmodel.KindPseudo {
		var sum int64
		for _, cpid := range incidentCopies(e.Graph, a) {
			cp := e.Graph.CopyByID(cpid)
			if cp.Src == cp.Dst {
				continue
			}
			sum += e.pseudoRegCopyCost(cp)
		}
		return sum
	}

	other := otherEndpointHardRegno(e.Graph, a)
	switch {
	case other >= 0:
		cl := e.Facade.RegnoRegClass(target.HardReg(a.HardRegno))
		ocl := e.Facade.RegnoRegClass(target.HardReg(other))
		return int64(e.Facade.RegisterMoveCost(a.Mode, cl, ocl)) * frequencyOf(e.Graph, a) * int64(e.Facade.Caps().CostFactor)
	case otherEndpointInMemory(e.Graph, a):
		cl := e.Facade.RegnoRegClass(target.HardReg(a.HardRegno))
		return int64(e.Facade.MemoryMoveCost(a.Mode, cl, true)) * frequencyOf(e.Graph, a)
	default:
		return 0
	}
}

// costUnassignedOrScratch covers the use-without-change (memory<->memory)
// and use-equiv-const (constant use) cost cases, plus the zero-cost
// scratch/unassigned cases.
func (e *Engine) costUnassignedOrScratch(a *progmodel.Allocno) int64 {
	switch {
	case a.UseWithoutChange:
		cl := e.Facade.RegnoRegClass(0)
		lo := e.Facade.MemoryMoveCost(a.Mode, cl, true)
		hi := e.Facade.MemoryMoveCost(a.Mode, cl, false)
		lowest := lo
		if hi < lowest {
			lowest = hi
		}
		cost := int64(lowest)*2 - int64(e.Facade.Caps().CostFactor)/2
		if cost < 0 {
			cost = 0
		}
		return cost
	case a.UseEquivConst:
		return int64(e.Facade.MemoryMoveCost(a.Mode, 0, true))
	default:
		return 0
	}
}

func (e *Engine) pseudoRegCopyCost(cp *progmodel.Copy) int64 {
	loc := e.Graph.GetCopyLoc(cp, progmodel.SideSrc)
	dloc := e.Graph.GetCopyLoc(cp, progmodel.SideDst)

	switch {
	case loc.HardRegno >= 0 && dloc.HardRegno >= 0:
		cl := e.Facade.RegnoRegClass(target.HardReg(loc.HardRegno))
		dcl := e.Facade.RegnoRegClass(target.HardReg(dloc.HardRegno))
		return int64(e.Facade.RegisterMoveCost(cp.Mode, cl, dcl)) * cp.Freq * int64(e.Facade.Caps().CostFactor)
	case loc.HardRegno >= 0 || dloc.HardRegno >= 0:
		cl := e.Facade.RegnoRegClass(target.HardReg(maxInt(loc.HardRegno, dloc.HardRegno)))
		return int64(e.Facade.MemoryMoveCost(cp.Mode, cl, loc.HardRegno < 0)) * cp.Freq
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func otherEndpointHardRegno(g *progmodel.Graph, a *progmodel.Allocno) int {
	for _, cp := range g.Copies {
		if cp.Src == a.ID && cp.Dst >= 0 {
			d := g.AllocnoByID(cp.Dst)
			if d.HardRegno >= 0 {
				return d.HardRegno
			}
		}
		if cp.Dst == a.ID && cp.Src >= 0 {
			s := g.AllocnoByID(cp.Src)
			if s.HardRegno >= 0 {
				return s.HardRegno
			}
		}
	}
	return -1
}

func otherEndpointInMemory(g *progmodel.Graph, a *progmodel.Allocno) bool {
	for _, cp := range g.Copies {
		if cp.Src == a.ID && cp.Dst >= 0 {
			if g.AllocnoByID(cp.Dst).MemSlotID >= 0 {
				return true
			}
		}
		if cp.Dst == a.ID && cp.Src >= 0 {
			if g.AllocnoByID(cp.Src).MemSlotID >= 0 {
				return true
			}
		}
	}
	return false
}

func frequencyOf(g *progmodel.Graph, a *progmodel.Allocno) int64 {
	for _, cp := range g.Copies {
		if cp.Src == a.ID || cp.Dst == a.ID {
			return cp.Freq
		}
	}
	return 1
}
