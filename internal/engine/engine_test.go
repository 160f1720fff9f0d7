package engine

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/constraint"
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/secondary"
	"github.com/orizon-lang/regalloc-core/internal/stackslot"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

type noConflictOracle struct{}

func (noConflictOracle) CANsConflict(a, b int) bool              { return false }
func (noConflictOracle) CopiesConflict(a, b int) bool            { return false }
func (noConflictOracle) CANConflictsWithCopy(can, copy int) bool { return false }

func newEngine() *Engine {
	facade := target.NewGeneric()
	g := progmodel.NewGraph(nil)
	hw := hwreg.New(facade)
	packer := stackslot.New(facade.Caps().Growth)
	mem := memslot.New(facade, packer, noConflictOracle{})
	var cost int64
	log := txn.New(facade, hw, mem, &cost)
	sec := &secondary.Planner{Facade: facade, Graph: g, HW: hw, Mem: mem, Log: log}
	return &Engine{Facade: facade, Graph: g, HW: hw, Mem: mem, Eval: constraint.New(facade), Sec: sec, Log: log}
}

func TestAssignOneAllocnoHardRegSucceedsAndCharges(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	possible := e.Facade.ClassContents(target.ClassGPR)
	if !e.AssignOneAllocno(a, target.ClassGPR, possible, target.HardReg(-1)) {
		t.Fatal("expected AssignOneAllocno to succeed with free GPRs available")
	}
	if a.HardRegno < 0 {
		t.Error("expected a hard register to be assigned")
	}
	if e.HW.RefCount(target.HardReg(a.HardRegno)) != 1 {
		t.Errorf("RefCount = %d, want 1", e.HW.RefCount(target.HardReg(a.HardRegno)))
	}
}

func TestAssignOneAllocnoAvoidsConflictingHardReg(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	b := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	a.ConflictVec = []int{1}
	b.ConflictVec = []int{0}
	e.Graph.Allocnos = append(e.Graph.Allocnos, a, b)

	possible := e.Facade.ClassContents(target.ClassGPR)
	if !e.AssignOneAllocno(b, target.ClassGPR, possible, target.HardReg(-1)) {
		t.Fatal("expected b to get a register first")
	}

	if !e.AssignOneAllocno(a, target.ClassGPR, possible, target.HardReg(-1)) {
		t.Fatal("expected a to still find a free register")
	}
	if a.HardRegno == b.HardRegno {
		t.Error("expected conflicting allocnos to receive distinct hard registers")
	}
}

func TestAssignOneAllocnoMemoryAllocatesSlot(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	if !e.AssignOneAllocno(a, target.NoRegs, 0, target.HardReg(-1)) {
		t.Fatal("expected the NO_REGS case to allocate a memory slot")
	}
	if a.MemSlotID < 0 {
		t.Error("expected a memory slot to be assigned")
	}
	if e.Cost == 0 {
		t.Error("expected a nonzero memory-move cost to be charged")
	}
}

func TestAssignOneAllocnoMemoryRejectsEliminatedAllocno(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.Elimination = true
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	if e.AssignOneAllocno(a, target.NoRegs, 0, target.HardReg(-1)) {
		t.Fatal("expected assignMemory to refuse an eliminated allocno")
	}
}

func TestAssignOneAllocnoMemorylessMarksUseWithoutChange(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	if !e.AssignOneAllocno(a, target.LimRegClasses, 0, target.HardReg(-1)) {
		t.Fatal("expected the LIM_REG_CLASSES case to succeed")
	}
	if !a.UseWithoutChange {
		t.Error("expected UseWithoutChange to be set when no equivalent constant is recorded")
	}
}

func TestAssignOneAllocnoMemorylessUsesEquivConstWhenPresent(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.EquivConstValue = "42"
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	if !e.AssignOneAllocno(a, target.LimRegClasses, 0, target.HardReg(-1)) {
		t.Fatal("expected the LIM_REG_CLASSES case to succeed")
	}
	if !a.UseEquivConst {
		t.Error("expected UseEquivConst to be set when an equivalent constant is recorded")
	}
}

func TestUnassignAllocnoReleasesHardReg(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	possible := e.Facade.ClassContents(target.ClassGPR)
	if !e.AssignOneAllocno(a, target.ClassGPR, possible, target.HardReg(-1)) {
		t.Fatal("setup: expected assignment to succeed")
	}
	assignedReg := target.HardReg(a.HardRegno)

	e.UnassignAllocno(a)

	if a.HardRegno != -1 {
		t.Error("expected HardRegno reset to -1")
	}
	if got := e.HW.RefCount(assignedReg); got != 0 {
		t.Errorf("RefCount(%v) after unassign = %d, want 0", assignedReg, got)
	}
}

func TestUnassignAllocnoReleasesMemorySlot(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	if !e.AssignOneAllocno(a, target.NoRegs, 0, target.HardReg(-1)) {
		t.Fatal("setup: expected memory assignment to succeed")
	}

	e.UnassignAllocno(a)

	if a.MemSlotID != -1 {
		t.Error("expected MemSlotID reset to -1")
	}
	if _, ok := e.Mem.SlotForCAN(a.ID); ok {
		t.Error("expected the memory slot to be released")
	}
}

func TestAssignAllocnoPairSharesHardReg(t *testing.T) {
	e := newEngine()
	original := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	duplicate := progmodel.NewPseudo(1, 1, lir.Mode{Name: "i64", Size: 8})
	original.TiedAllocno = 1
	duplicate.TiedAllocno = 0
	e.Graph.Allocnos = append(e.Graph.Allocnos, original, duplicate)

	possible := e.Facade.ClassContents(target.ClassGPR)
	if !e.AssignAllocno(original, target.ClassGPR, possible, target.HardReg(-1)) {
		t.Fatal("expected the tied pair to be assignable together")
	}
	if duplicate.HardRegno != original.HardRegno {
		t.Errorf("duplicate.HardRegno = %d, want %d (shared with original)", duplicate.HardRegno, original.HardRegno)
	}
	if !original.OriginalP || duplicate.OriginalP {
		t.Error("expected original.OriginalP=true and duplicate.OriginalP=false")
	}
}

func TestCheckHardRegnoForARejectsModeMismatch(t *testing.T) {
	e := newEngine()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "f64", Size: 8})
	e.Graph.Allocnos = append(e.Graph.Allocnos, a)

	possible := e.Facade.ClassContents(target.ClassGPR)
	// RAX cannot hold an f64 value per Generic.HardRegnoModeOK.
	if e.CheckHardRegnoForA(a, target.RAX, possible) {
		t.Error("expected CheckHardRegnoForA to reject a float mode against a GPR")
	}
}

func TestCostHardRegSumsIncidentCopyCosts(t *testing.T) {
	e := newEngine()
	src := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	dst := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	src.HardRegno = int(target.RAX)
	dst.HardRegno = int(target.RCX)
	e.Graph.Allocnos = append(e.Graph.Allocnos, src, dst)
	e.Graph.Copies = append(e.Graph.Copies, progmodel.NewCopy(0, 0, 1, 3, lir.Mode{Name: "i64", Size: 8}))

	got := e.costHardReg(src)
	want := int64(e.Facade.RegisterMoveCost(lir.Mode{Name: "i64", Size: 8}, target.ClassGPR, target.ClassGPR)) * 3 * int64(e.Facade.Caps().CostFactor)
	if got != want {
		t.Errorf("costHardReg = %d, want %d", got, want)
	}
}
