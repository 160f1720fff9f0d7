package progmodel

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/lir"
)

func sampleFunc() *lir.Function {
	return &lir.Function{
		Name: "f",
		Blocks: []*lir.BasicBlock{
			{
				Label: "entry",
				Insns: []lir.Insn{
					lir.Mov{Dst: "%a", Src: "1"},
					lir.Mov{Dst: "%b", Src: "2"},
					lir.Add{Dst: "%c", LHS: "%a", RHS: "%b"},
					lir.Ret{Src: "%c"},
				},
			},
		},
		Freq: []int64{1},
	}
}

func TestBuildCreatesPseudoAndInsnAllocnos(t *testing.T) {
	b := NewBuilder(nil)
	g := b.Build(sampleFunc())

	var pseudos, insnAllocnos int
	for _, a := range g.Allocnos {
		switch a.Kind {
		case KindPseudo:
			pseudos++
		case KindInsnOperand:
			insnAllocnos++
		}
	}

	if pseudos != 3 {
		t.Errorf("got %d pseudo allocnos, want 3 (%%a, %%b, %%c)", pseudos)
	}
	// mov %a,1 (2 ops) / mov %b,2 (2 ops) / add %c,%a,%b (3 ops) / ret %c (1 op)
	// = 8 operand occurrences; literal operands get insn allocnos too.
	if insnAllocnos != 8 {
		t.Errorf("got %d insn allocnos, want 8", insnAllocnos)
	}
}

func TestBuildTiesPseudoToSameAllocnoAcrossUses(t *testing.T) {
	b := NewBuilder(nil)
	g := b.Build(sampleFunc())

	aID, ok := g.byPseudoName["%a"]
	if !ok {
		t.Fatal("expected %a registered as a pseudo")
	}
	pseudo := g.AllocnoByID(aID)
	if pseudo.Kind != KindPseudo {
		t.Fatalf("byPseudoName[%%a] does not point at a pseudo allocno: %+v", pseudo)
	}
}

func TestBuildConflictsBetweenSimultaneouslyLivePseudos(t *testing.T) {
	b := NewBuilder(nil)
	g := b.Build(sampleFunc())

	aID := g.byPseudoName["%a"]
	bID := g.byPseudoName["%b"]

	a := g.AllocnoByID(aID)
	found := false
	for _, c := range a.ConflictVec {
		if c == bID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %%a and %%b to conflict (both live at the add), got ConflictVec=%v", a.ConflictVec)
	}
}

func TestBuildComputesCANs(t *testing.T) {
	b := NewBuilder(nil)
	g := b.Build(sampleFunc())

	if len(g.CANs) == 0 {
		t.Fatal("expected at least one CAN after Build")
	}
	for _, can := range g.CANs {
		if len(can.Members) == 0 {
			t.Errorf("CAN %d has no members", can.Slot)
		}
	}
}

func TestBuildMovCopyPropagationEdge(t *testing.T) {
	fn := &lir.Function{
		Name: "mv",
		Blocks: []*lir.BasicBlock{
			{Label: "entry", Insns: []lir.Insn{
				lir.Mov{Dst: "%x", Src: "1"},
				lir.Mov{Dst: "%y", Src: "%x"},
				lir.Ret{Src: "%y"},
			}},
		},
		Freq: []int64{1},
	}

	b := NewBuilder(nil)
	g := b.Build(fn)

	xID := g.byPseudoName["%x"]
	yID := g.byPseudoName["%y"]

	found := false
	for _, cp := range g.Copies {
		if cp.Src == xID && cp.Dst == yID {
			found = true
		}
	}
	if !found {
		t.Error("expected a direct pseudo-to-pseudo copy edge for 'mov %y, %x'")
	}
}

func TestAllocnoByIDPanicsOnUnknownID(t *testing.T) {
	g := NewGraph(nil)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unknown allocno ID")
		}
	}()
	g.AllocnoByID(99)
}

func TestNoEquivalenceAlwaysDeclines(t *testing.T) {
	var oracle EquivalenceOracle = NoEquivalence{}

	if _, ok := oracle.EquivalentConstant("%a"); ok {
		t.Error("expected NoEquivalence to never report an equivalent constant")
	}
	if _, _, ok := oracle.EquivalentMemory("%a"); ok {
		t.Error("expected NoEquivalence to never report an equivalent memory location")
	}
}
