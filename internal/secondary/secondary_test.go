package secondary

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/memslot"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/stackslot"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/orizon-lang/regalloc-core/internal/txn"
)

type noConflictOracle struct{}

func (noConflictOracle) CANsConflict(a, b int) bool          { return false }
func (noConflictOracle) CopiesConflict(a, b int) bool        { return false }
func (noConflictOracle) CANConflictsWithCopy(can, copy int) bool { return false }

func newPlanner(t *testing.T) (*Planner, *progmodel.Graph) {
	t.Helper()
	facade := target.NewGeneric()
	g := progmodel.NewGraph(nil)
	hw := hwreg.New(facade)
	packer := stackslot.New(facade.Caps().Growth)
	mem := memslot.New(facade, packer, noConflictOracle{})
	var cost int64
	log := txn.New(facade, hw, mem, &cost)
	return &Planner{Facade: facade, Graph: g, HW: hw, Mem: mem, Log: log}, g
}

func TestPlanNoopWhenBothEndpointsSameHardReg(t *testing.T) {
	p, g := newPlanner(t)
	src := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	dst := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	src.HardRegno = int(target.RAX)
	dst.HardRegno = int(target.RAX)
	g.Allocnos = append(g.Allocnos, src, dst)

	cp := progmodel.NewCopy(0, 0, 1, 1, lir.Mode{Name: "i64", Size: 8})
	if !p.Plan(cp) {
		t.Fatal("expected Plan to succeed for a same-register copy")
	}
	if cp.Secondary != nil {
		t.Error("expected no secondary plan when both endpoints share a hard register")
	}
}

func TestPlanSkipsWhenNeitherEndpointAssigned(t *testing.T) {
	p, g := newPlanner(t)
	src := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	dst := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	g.Allocnos = append(g.Allocnos, src, dst)

	cp := progmodel.NewCopy(0, 0, 1, 1, lir.Mode{Name: "i64", Size: 8})
	if !p.Plan(cp) {
		t.Fatal("expected Plan to succeed trivially when neither endpoint is assigned yet")
	}
}

func TestPlanGPRToGPRNeedsNoSecondary(t *testing.T) {
	p, g := newPlanner(t)
	src := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	dst := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	src.HardRegno = int(target.RAX)
	g.Allocnos = append(g.Allocnos, src, dst)

	cp := progmodel.NewCopy(0, 0, 1, 1, lir.Mode{Name: "i64", Size: 8})
	if !p.Plan(cp) {
		t.Fatal("expected Plan to succeed for a GPR source with an unassigned destination")
	}
	if cp.Secondary != nil {
		t.Error("expected no secondary reload for a same-class GPR copy")
	}
}

func TestPlanCrossClassPlansIntermediateRegister(t *testing.T) {
	p, g := newPlanner(t)
	src := progmodel.NewPseudo(0, 1, lir.Mode{Name: "f64", Size: 8})
	// The destination's own mode is deliberately non-float: operandOf
	// synthesizes its operand straight from this Allocno's Mode, and the
	// generic target's SecondaryInputReloadClass only asks for a GPR
	// intermediate when the XMM side's counterpart operand is non-float.
	dst := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})
	src.HardRegno = 16 // first XMM register
	g.Allocnos = append(g.Allocnos, src, dst)

	cp := progmodel.NewCopy(0, 0, 1, 1, lir.Mode{Name: "f64", Size: 8})

	if !p.Plan(cp) {
		t.Fatal("expected Plan to succeed")
	}
	if cp.Secondary == nil || cp.Secondary.IntermRegno < 0 {
		t.Fatalf("expected a planned GPR intermediate register, got %+v", cp.Secondary)
	}
	if target.RegClass(cp.Secondary.IntermClass) != target.ClassGPR {
		t.Errorf("IntermClass = %d, want ClassGPR", cp.Secondary.IntermClass)
	}
}

func TestUnplanReleasesHardRegsAndMemory(t *testing.T) {
	p, _ := newPlanner(t)

	cp := &progmodel.Copy{ID: 1, Src: -1, Dst: -1}
	cp.Secondary = &progmodel.SecondaryChange{
		IntermClass: int(target.ClassGPR), IntermMode: lir.Mode{Name: "i64", Size: 8},
		IntermRegno: int(target.RAX), ScratchRegno: -1, MemorySlotID: -1,
	}
	p.HW.MarkAllocationMode(target.RAX, 1)

	p.Unplan(cp)

	if cp.Secondary != nil {
		t.Error("expected Unplan to clear the secondary plan")
	}
	if got := p.HW.RefCount(target.RAX); got != 0 {
		t.Errorf("RefCount(RAX) after Unplan = %d, want 0", got)
	}
}

func TestUnplanNoopWithoutSecondaryPlan(t *testing.T) {
	p, _ := newPlanner(t)
	cp := &progmodel.Copy{ID: 1, Src: -1, Dst: -1}

	p.Unplan(cp) // must not panic
	if cp.Secondary != nil {
		t.Error("expected Secondary to remain nil")
	}
}
