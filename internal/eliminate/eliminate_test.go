package eliminate

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/constraint"
	"github.com/orizon-lang/regalloc-core/internal/hwreg"
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
)

func newEliminator() (*Eliminator, *hwreg.Bookkeeping) {
	facade := target.NewGeneric()
	hw := hwreg.New(facade)
	var cost int64
	return &Eliminator{
		Facade:       facade,
		HW:           hw,
		Eval:         constraint.New(facade),
		Cost:         &cost,
		IntegerOK:    func(letter byte, offset int64) bool { return offset >= -128 && offset <= 127 },
		BaseRegClass: target.ClassGPR,
		Pmode:        lir.Mode{Name: "i64", Size: 8},
	}, hw
}

func TestEliminateRegAcceptsFirstFeasibleCandidate(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 16})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrPlusConst,
		Displacement: 8,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
	}

	if !e.EliminateReg(a, site) {
		t.Fatal("expected EliminateReg to accept the registered candidate")
	}
	if !a.Elimination {
		t.Error("expected Elimination to be set")
	}
	if a.ElimCandidateTo != target.RBX {
		t.Errorf("ElimCandidateTo = %v, want RBX", a.ElimCandidateTo)
	}
	if a.ElimOffset != 24 {
		t.Errorf("ElimOffset = %d, want 24 (16+8)", a.ElimOffset)
	}
	if *e.Cost == 0 {
		t.Error("expected a nonzero elimination cost to be charged")
	}
}

func TestEliminateRegRejectsOffsetOutOfRange(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 1000})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrPlusConst,
		Displacement: 8,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
	}

	e.FindHardReg = func(class target.RegClass, possible target.HardRegSet) (target.HardReg, bool) {
		return 0, false
	}

	if e.EliminateReg(a, site) {
		t.Fatal("expected EliminateReg to fail: offset 1008 is out of the IntegerOK range and no intermediate is available")
	}
}

func TestEliminateRegFallsBackToReusedHardReg(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 1000})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.HardRegno = int(target.RAX)

	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrPlusConst,
		Displacement: 8,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
	}

	if !e.EliminateReg(a, site) {
		t.Fatal("expected EliminateReg to fall back to the allocno's own hard register")
	}
	if a.IntermEliminationRegno != int(target.RAX) {
		t.Errorf("IntermEliminationRegno = %d, want RAX (%d)", a.IntermEliminationRegno, target.RAX)
	}
}

func TestEliminateRegFallsBackToAssignedIntermediate(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 1000})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})

	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrPlusConst,
		Displacement: 8,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
	}

	e.FindHardReg = func(class target.RegClass, possible target.HardRegSet) (target.HardReg, bool) {
		return target.RCX, true
	}

	if !e.EliminateReg(a, site) {
		t.Fatal("expected EliminateReg to succeed via assign_elimination_reg")
	}
	if a.IntermEliminationRegno != int(target.RCX) {
		t.Errorf("IntermEliminationRegno = %d, want RCX (%d)", a.IntermEliminationRegno, target.RCX)
	}
	if len(a.IntermEliminationSet) != 1 || a.IntermEliminationSet[0] != int(target.RCX) {
		t.Errorf("IntermEliminationSet = %v, want [RCX]", a.IntermEliminationSet)
	}
}

func TestEliminateRegAddrBaseOrIndexConsultsLegitimateAddress(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 16})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	var seenCandidate target.HardReg
	var seenOffset int64

	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrBaseOrIndex,
		Displacement: 4,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
		LegitimateAddress: func(candidate target.HardReg, offset int64) bool {
			seenCandidate, seenOffset = candidate, offset
			return true
		},
	}

	if !e.EliminateReg(a, site) {
		t.Fatal("expected EliminateReg to accept once LegitimateAddress approves")
	}
	if seenCandidate != target.RBX || seenOffset != 20 {
		t.Errorf("LegitimateAddress called with (%v, %d), want (RBX, 20)", seenCandidate, seenOffset)
	}
}

func TestEliminateRegAddrBaseOrIndexRejectedByLegitimateAddress(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 16})

	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.HardRegno = int(target.RAX)

	site := Site{
		VirtualRegno: "%fp",
		Mode:         AddrBaseOrIndex,
		Displacement: 4,
		Op:           lir.Operand{Constraints: []string{"I"}},
		Alts:         progmodel.FullAltSet(1),
		LegitimateAddress: func(candidate target.HardReg, offset int64) bool {
			return false
		},
	}

	if !e.EliminateReg(a, site) {
		t.Fatal("expected a fallback to the allocno's own hard register when the address is illegitimate")
	}
	if a.Elimination {
		t.Error("expected direct elimination to be rejected, falling back to an intermediate instead")
	}
}

func TestUneliminateRegClearsBothPaths(t *testing.T) {
	e, _ := newEliminator()
	a := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.Elimination = true
	a.ElimCandidateTo = target.RBX
	a.ElimOffset = 24
	a.IntermEliminationRegno = int(target.RCX)
	a.IntermEliminationSet = []int{int(target.RCX)}

	e.UneliminateReg(a)

	if a.Elimination || a.ElimCandidateTo != 0 || a.ElimOffset != 0 {
		t.Errorf("expected elimination state cleared, got Elimination=%v To=%v Offset=%d", a.Elimination, a.ElimCandidateTo, a.ElimOffset)
	}
	if a.IntermEliminationRegno != -1 || a.IntermEliminationSet != nil {
		t.Errorf("expected intermediate state cleared, got regno=%d set=%v", a.IntermEliminationRegno, a.IntermEliminationSet)
	}
}

func TestEliminateVirtualRegistersSkipsAllocnosWithoutSites(t *testing.T) {
	e, hw := newEliminator()
	hw.RegisterEliminable(hwreg.EliminatePair{From: "%fp", To: target.RBX, Offset: 16})

	a0 := progmodel.NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a1 := progmodel.NewPseudo(1, 2, lir.Mode{Name: "i64", Size: 8})

	sites := map[int]Site{
		0: {
			VirtualRegno: "%fp",
			Mode:         AddrPlusConst,
			Displacement: 8,
			Op:           lir.Operand{Constraints: []string{"I"}},
			Alts:         progmodel.FullAltSet(1),
		},
	}

	var seen []int
	e.EliminateVirtualRegisters(sites, func() []*progmodel.Allocno { return []*progmodel.Allocno{a0, a1} }, func(a *progmodel.Allocno, ok bool) {
		seen = append(seen, a.ID)
		if !ok {
			t.Errorf("allocno %d unexpectedly failed elimination", a.ID)
		}
	})

	if len(seen) != 1 || seen[0] != 0 {
		t.Errorf("callback invoked for %v, want only allocno 0 (the one with a registered site)", seen)
	}
}
