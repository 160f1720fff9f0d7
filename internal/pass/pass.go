// Package pass wires every component into the single allocation pass
// instance that drives one compilation unit end to end: graph
// construction, the engine primitives, transactions, and the read-only
// observation accessors.
package pass

import (
	"fmt"

	"github.com/orizon-lang/regalloc-core/internal/constraint"
	"github.com/orizon-lang/regalloc-core/internal/eliminate"
	"github.com/orizon-lang/regalloc-core/internal/engine"
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/secondary"
	"github.com/orizon-lang/regalloc-core/internal/stackslot"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

// Pass owns every mutable collaborator for one compilation unit's
// allocation run.
type Pass struct {
	Facade target.Facade

	Graph *progmodel.Graph
	HW *hwreg.Bookkeeping
	Packer *stackslot.Packer
	Mem *memslot.Manager
	Eval *constraint.Evaluator
	Sec *secondary.Planner
	Elim *eliminate.Eliminator
	Engine *engine.Engine
	Log *txn.Log

	oracle progmodel.EquivalenceOracle
	builder *progmodel.Builder
}

// Config is init_pass's input bundle: the target facade, the equivalence
// oracle collaborator, and the optional copy-conflict and integer-constraint
// predicates. The IR itself is supplied later, through BuildGraph.
type Config struct {
	Facade target.Facade
	Oracle progmodel.EquivalenceOracle // nil -> progmodel.NoEquivalence{}
	Copy CopyConflictFunc
	AltsFor IntegerOKFunc
}

type CopyConflictFunc func(a, b int) bool
type IntegerOKFunc func(letter byte, offset int64) bool

// Init implements init_pass: prepares every component's caches without
// yet consuming an IR view.
func Init(cfg Config) *Pass {
	oracle := cfg.Oracle
	if oracle == nil {
		oracle = progmodel.NoEquivalence{}
	}

	hw := hwreg.New(cfg.Facade)
	packer := stackslot.New(cfg.Facade.Caps().Growth)

	p := &Pass{Facade: cfg.Facade, HW: hw, Packer: packer, oracle: oracle}

	builder := progmodel.NewBuilder(oracle)
	p.builder = builder
	graph := builder.Graph
	p.Graph = graph

	co := progmodel.ConflictOracle{Graph: graph, CopyConflict: cfg.Copy}
	p.Mem = memslot.New(cfg.Facade, packer, co)

	p.Eval = constraint.New(cfg.Facade)

	// Engine.Cost is the single global_allocation_cost total; the log and
	// the eliminator both need write access to it, the log to snapshot/
	// restore it across transactions and the eliminator to charge
	// elimination-register move costs into the same running total.
	p.Engine = &engine.Engine{Facade: cfg.Facade, Graph: graph, HW: hw, Mem: p.Mem, Eval: p.Eval}

	p.Log = txn.New(cfg.Facade, hw, p.Mem, &p.Engine.Cost)
	p.Engine.Log = p.Log

	p.Sec = &secondary.Planner{Facade: cfg.Facade, Graph: graph, HW: hw, Mem: p.Mem, Log: p.Log, Prohibited: p.secondaryProhibited}
	p.Engine.Sec = p.Sec

	p.Elim = &eliminate.Eliminator{
		Facade: cfg.Facade, HW: hw, Eval: p.Eval, Log: p.Log, Cost: &p.Engine.Cost,
		IntegerOK: eliminate.IntegerOK(cfg.AltsFor),
		FindHardReg: func(class target.RegClass, possible target.HardRegSet) (target.HardReg, bool) {
			for _, r := range cfg.Facade.ClassHardRegs(class) {
				if possible.Has(r) && hw.RefCount(r) == 0 {
					return r, true
				}
			}
			return 0, false
		},
		BaseRegClass: baseRegClassOf(cfg.Facade),
		Pmode: lir.Mode{Name: "ptr", Size: 8},
	}

	return p
}

func baseRegClassOf(facade target.Facade) target.RegClass {
	if cl, ok := facade.ConstraintLetterClass('r'); ok {
		return cl
	}
	return target.NoRegs
}

// secondaryProhibited builds the conflict set for the secondary planner:
// the occupied interm/scratch sets of every currently-planned reload on a
// copy listed in either endpoint's CopyConflictVec. Registers already held
// elsewhere are skipped separately by the planner's refcount check.
func (p *Pass) secondaryProhibited(cp *progmodel.Copy) target.HardRegSet {
	var s target.HardRegSet
	for _, end := range []int{cp.Src, cp.Dst} {
		if end < 0 {
			continue
		}
		a := p.Graph.AllocnoByID(end)
		for _, cid := range a.CopyConflictVec {
			other := p.Graph.CopyByID(cid)
			if other.Secondary != nil {
				s = s.Union(target.HardRegSet(other.Secondary.OccupiedHardRegs))
			}
		}
	}
	return s
}

// BuildGraph implements build_graph: consumes fn plus loop/frequency info
// (carried on fn itself, per lir.Function.Freq) and populates allocnos,
// copies, CANs, conflict sets.
func (p *Pass) BuildGraph(fn *lir.Function) {
	p.builder.Build(fn)
}

// StartTransaction / EndTransaction / UndoTransaction delegate directly;
// exposed here so callers need not reach into Pass.Log.
func (p *Pass) StartTransaction() { p.Log.StartTransaction() }
func (p *Pass) EndTransaction() { p.Log.EndTransaction() }
func (p *Pass) UndoTransaction() { p.Log.UndoTransaction() }

// AssignAllocno / AssignAllocnoPair / UnassignAllocno / CheckHardRegnoForA
// delegate to the engine.
func (p *Pass) AssignAllocno(a *progmodel.Allocno, class target.RegClass, possible target.HardRegSet, hint target.HardReg) bool {
	return p.Engine.AssignAllocno(a, class, possible, hint)
}

func (p *Pass) AssignAllocnoPair(original, duplicate *progmodel.Allocno, class target.RegClass, possible target.HardRegSet, hint target.HardReg) bool {
	return p.Engine.AssignAllocnoPair(original, duplicate, class, possible, hint)
}

func (p *Pass) UnassignAllocno(a *progmodel.Allocno) { p.Engine.UnassignAllocno(a) }

func (p *Pass) CheckHardRegnoForA(a *progmodel.Allocno, r target.HardReg, possible target.HardRegSet) bool {
	return p.Engine.CheckHardRegnoForA(a, r, possible)
}

func (p *Pass) CheckHardRegnoMemoryOnConstraint(insnOperands map[int]lir.Operand, a *progmodel.Allocno, st constraint.State) bool {
	return p.Eval.CheckHardRegnoMemoryOnConstraint(p.Graph, insnOperands, a, st, nil)
}

// CreateTie / BreakTie implement the engine's tie-management primitives
// for matched-operand pairing established outside the graph-build step,
// which already ties operands sharing a constraint's matched digit.
func (p *Pass) CreateTie(a, b *progmodel.Allocno) {
	p.Log.RecordAllocno(a)
	p.Log.RecordAllocno(b)
	a.TiedAllocno = b.ID
	b.TiedAllocno = a.ID
}

func (p *Pass) BreakTie(a, b *progmodel.Allocno) {
	if a.TiedAllocno != b.ID || b.TiedAllocno != a.ID {
		panic(fmt.Sprintf("pass: break_tie on non-matching pair (%d,%d)", a.ID, b.ID))
	}
	p.Log.RecordAllocno(a)
	p.Log.RecordAllocno(b)
	a.TiedAllocno = -1
	b.TiedAllocno = -1
}

// EliminateReg / UneliminateReg delegate to the eliminator.
func (p *Pass) EliminateReg(a *progmodel.Allocno, site eliminate.Site) bool {
	return p.Elim.EliminateReg(a, site)
}

func (p *Pass) UneliminateReg(a *progmodel.Allocno) { p.Elim.UneliminateReg(a) }

// EliminateVirtualRegisters implements eliminate_virtual_registers(callback):
// walk every allocno carrying a registered elimination site and attempt
// EliminateReg, reporting the outcome to callback.
func (p *Pass) EliminateVirtualRegisters(sites map[int]eliminate.Site, callback func(a *progmodel.Allocno, ok bool)) {
	p.Elim.EliminateVirtualRegisters(sites, func() []*progmodel.Allocno { return p.Graph.Allocnos }, callback)
}

// GlobalAllocationCost is the running-total observation accessor.
func (p *Pass) GlobalAllocationCost() int64 { return p.Engine.GlobalAllocationCost() }

// AllocnoState is the read-only per-allocno observation the engine
// commits: exactly one of HardRegno/MemSlot/UseEquivConst/
// UseWithoutChange/ConstPool describes the allocno's final container.
type AllocnoState struct {
	HardRegno int
	MemSlotID int
	UseEquivConst bool
	UseWithoutChange bool
	ConstPool bool
}

func (p *Pass) AllocnoState(a *progmodel.Allocno) AllocnoState {
	return AllocnoState{
		HardRegno: a.HardRegno, MemSlotID: a.MemSlotID,
		UseEquivConst: a.UseEquivConst, UseWithoutChange: a.UseWithoutChange, ConstPool: a.ConstPool,
	}
}

// CopySecondaryPlan is the read-only per-copy observation accessor.
func (p *Pass) CopySecondaryPlan(cp *progmodel.Copy) *progmodel.SecondaryChange {
	return cp.Secondary.Clone()
}

// StackArea reports the current stack area's size and alignment.
func (p *Pass) StackArea() stackslot.Stats {
	return p.Packer.Stats(p.Facade.Caps().PreferredStackBoundary)
}
