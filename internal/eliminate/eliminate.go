// Package eliminate replaces references to virtual frame/argument-pointer
// registers with real-base-plus-offset addressing, inserting an
// intermediate base register when the displacement or addressing mode
// does not admit the elimination directly.
package eliminate

import (
	"github.com/orizon-lang/regalloc-core/internal/constraint"
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

// IntegerOK decides, for one constraint letter and a proposed offset,
// whether the offset is admissible.
type IntegerOK func(letter byte, offset int64) bool

// AddressMode describes how a virtual register appears inside one
// allocno's containing address, resolved by the collaborator that built
// the program model (instruction selection is out of this core's scope).
type AddressMode int

const (
	// AddrPlusConst: the allocno's whole container is ADDRESS(PLUS(vreg, const)).
	AddrPlusConst AddressMode = iota
	// AddrBaseOrIndex: the virtual reg sits in a base-reg or index-reg
	// sub-position of a larger address, alongside a displacement.
	AddrBaseOrIndex
)

// Site is everything the eliminator needs about one use of a virtual
// register, supplied by the caller.
type Site struct {
	VirtualRegno string
	Mode         AddressMode

	Displacement int64
	IsIndex      bool
	Scale        int64

	// Op and Alts identify the operand/alternative whose integer
	// predicates gate an AddrPlusConst elimination; for AddrBaseOrIndex
	// this is the address operand's own constraint info.
	Op   lir.Operand
	Alts progmodel.AltSet

	// StackPointerCase is true when the candidate's to-regno is the
	// stack pointer, so the displacement must additionally account for
	// the simulated stack size at this point.
	StackPointerCase   bool
	SimulatedStackSize int64

	// LegitimateAddress reports whether substituting candidate and
	// adjustedOffset in place of VirtualRegno yields an address the
	// target accepts for the container's mode; nil for AddrPlusConst
	// sites, which are gated purely by integer predicates instead.
	LegitimateAddress func(candidate target.HardReg, adjustedOffset int64) bool
}

// Eliminator owns no persistent state beyond its collaborators; every
// acceptance it records lives on the Allocno itself.
type Eliminator struct {
	Facade target.Facade
	HW     *hwreg.Bookkeeping
	Eval   *constraint.Evaluator
	Log    *txn.Log
	Cost   *int64

	IntegerOK IntegerOK

	// FindHardReg restricts an ordinary find_hard_reg search to class,
	// honoring possibleRegs, for assign_elimination_reg's fallback.
	FindHardReg func(class target.RegClass, possibleRegs target.HardRegSet) (target.HardReg, bool)

	BaseRegClass target.RegClass
	Pmode        lir.Mode
}

// EliminateReg implements eliminate_reg(a): try every candidate base
// register in turn, falling back to an intermediate register when none
// admits the substitution directly.
func (e *Eliminator) EliminateReg(a *progmodel.Allocno, site Site) bool {
	candidates := e.HW.EliminationCandidates(site.VirtualRegno)

	for _, cand := range candidates {
		var ok bool
		var offset int64
		switch site.Mode {
		case AddrPlusConst:
			offset = cand.Offset + site.Displacement
			ok = e.Eval.AllAltOffsetOK(site.Op, site.Alts, offset, e.IntegerOK)
		case AddrBaseOrIndex:
			offset = cand.Offset + site.Displacement
			if site.StackPointerCase {
				offset += site.SimulatedStackSize
			}
			if site.IsIndex && site.Scale != 0 {
				offset *= site.Scale
			}
			// Base/index candidates still have to satisfy the operand's
			// integer predicates, not just the target's own address
			// legitimacy check.
			ok = e.Eval.AllAltOffsetOK(site.Op, site.Alts, offset, e.IntegerOK)
			if ok && site.LegitimateAddress != nil {
				ok = site.LegitimateAddress(cand.To, offset)
			}
		}

		if ok {
			e.accept(a, cand, offset)
			return true
		}
	}

	return e.requestIntermediate(a, site)
}

// requestIntermediate implements the fallback: reuse an already-assigned
// hard-reg of the same allocno if wide enough and in class, else call
// assign_elimination_reg.
func (e *Eliminator) requestIntermediate(a *progmodel.Allocno, site Site) bool {
	class := e.BaseRegClass
	possible := e.Facade.ClassContents(class)

	if a.HardRegno >= 0 && possible.Has(target.HardReg(a.HardRegno)) {
		e.logAllocno(a)
		a.IntermEliminationRegno = a.HardRegno
		return true
	}

	regno, ok := e.assignEliminationReg(class, possible)
	if !ok {
		return false
	}

	e.logAllocno(a)
	a.IntermEliminationRegno = int(regno)
	a.IntermEliminationSet = append(a.IntermEliminationSet[:0], int(regno))

	e.chargeCost(class)
	return true
}

// assignEliminationReg performs an ordinary find_hard_reg restricted to class.
func (e *Eliminator) assignEliminationReg(class target.RegClass, possibleRegs target.HardRegSet) (target.HardReg, bool) {
	if e.FindHardReg == nil {
		return 0, false
	}
	return e.FindHardReg(class, possibleRegs)
}

func (e *Eliminator) accept(a *progmodel.Allocno, cand hwreg.EliminatePair, offset int64) {
	e.logAllocno(a)
	a.Elimination = true
	a.ElimCandidateTo = cand.To
	a.ElimOffset = offset
	e.chargeCost(e.BaseRegClass)
}

// UneliminateReg reverses a previously-accepted elimination, mirroring
// accept/requestIntermediate for the engine's unassign path.
func (e *Eliminator) UneliminateReg(a *progmodel.Allocno) {
	e.logAllocno(a)
	if a.IntermEliminationRegno >= 0 {
		a.IntermEliminationRegno = -1
		a.IntermEliminationSet = nil
	}
	a.Elimination = false
	a.ElimCandidateTo = 0
	a.ElimOffset = 0
}

func (e *Eliminator) logAllocno(a *progmodel.Allocno) {
	if e.Log != nil {
		e.Log.RecordAllocno(a)
	}
}

// chargeCost charges one register_move_cost of Pmode, base-reg-class to
// chosen-class, scaled by the global cost factor.
func (e *Eliminator) chargeCost(chosen target.RegClass) {
	if e.Cost == nil {
		return
	}
	mc := e.Facade.RegisterMoveCost(e.Pmode, e.BaseRegClass, chosen)
	*e.Cost += int64(mc * e.Facade.Caps().CostFactor)
}

// EliminateVirtualRegisters walks every allocno the caller supplies,
// attempting EliminateReg on each that names a virtual register and
// invoking callback with the outcome.
func (e *Eliminator) EliminateVirtualRegisters(sites map[int]Site, allocnos func() []*progmodel.Allocno, callback func(a *progmodel.Allocno, ok bool)) {
	for _, a := range allocnos() {
		site, has := sites[a.ID]
		if !has {
			continue
		}
		ok := e.EliminateReg(a, site)
		if callback != nil {
			callback(a, ok)
		}
	}
}
