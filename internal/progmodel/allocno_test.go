package progmodel

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/lir"
)

func TestNewPseudoDefaults(t *testing.T) {
	a := NewPseudo(3, 7, lir.Mode{Name: "i64", Size: 8})

	if a.Kind != KindPseudo {
		t.Errorf("Kind = %v, want KindPseudo", a.Kind)
	}
	if a.CAN != -1 || a.HardRegno != -1 || a.MemSlotID != -1 {
		t.Errorf("expected CAN/HardRegno/MemSlotID all -1, got CAN=%d HardRegno=%d MemSlotID=%d", a.CAN, a.HardRegno, a.MemSlotID)
	}
	if a.TiedAllocno != -1 {
		t.Errorf("TiedAllocno = %d, want -1", a.TiedAllocno)
	}
}

func TestNewInsnAllocnoCarriesLocation(t *testing.T) {
	loc := Location{InsnIndex: 2, OperandIdx: 1, SubClass: lir.SubClassBaseReg}
	a := NewInsnAllocno(5, loc, lir.Mode{Name: "i32", Size: 4}, lir.IOIn, -1)

	if a.Kind != KindInsnOperand {
		t.Errorf("Kind = %v, want KindInsnOperand", a.Kind)
	}
	if a.Loc != loc {
		t.Errorf("Loc = %+v, want %+v", a.Loc, loc)
	}
	if a.IO != lir.IOIn {
		t.Errorf("IO = %v, want IOIn", a.IO)
	}
}

func TestAltSetBasics(t *testing.T) {
	s := FullAltSet(3)
	for i := 0; i < 3; i++ {
		if !s.Has(i) {
			t.Errorf("FullAltSet(3).Has(%d) = false, want true", i)
		}
	}
	if s.Has(3) {
		t.Error("FullAltSet(3).Has(3) = true, want false")
	}

	s = s.Without(1)
	if s.Has(1) {
		t.Error("Without(1) left bit 1 set")
	}
	if !s.Has(0) || !s.Has(2) {
		t.Error("Without(1) cleared unrelated bits")
	}

	if s.Intersect(AltSet(0)).Empty() != true {
		t.Error("Intersect with empty set should be empty")
	}
}

func TestFullAltSetSaturatesAt64(t *testing.T) {
	s := FullAltSet(64)
	if s != ^AltSet(0) {
		t.Errorf("FullAltSet(64) = %#x, want all bits set", uint64(s))
	}
}

func TestLiveRangeOverlaps(t *testing.T) {
	a := LiveRange{Segments: []Segment{{Start: 0, End: 3}}}
	b := LiveRange{Segments: []Segment{{Start: 2, End: 5}}}
	c := LiveRange{Segments: []Segment{{Start: 3, End: 5}}}

	if !a.Overlaps(b) {
		t.Error("expected [0,3) and [2,5) to overlap")
	}
	if a.Overlaps(c) {
		t.Error("expected [0,3) and [3,5) not to overlap (half-open ranges)")
	}
}

func TestGetAllocnoHardRegnoHonorsSubregByte(t *testing.T) {
	a := NewInsnAllocno(0, Location{SubregByte: 8}, lir.Mode{Name: "i32", Size: 4}, lir.IOIn, -1)

	if got := GetAllocnoHardRegno(a, 10, 16); got != 11 {
		t.Errorf("GetAllocnoHardRegno = %d, want 11 (container reg 10 + 8/8)", got)
	}
}

func TestGetAllocnoHardRegnoNoSubregIsIdentity(t *testing.T) {
	a := NewInsnAllocno(0, Location{}, lir.Mode{Name: "i64", Size: 8}, lir.IOIn, -1)

	if got := GetAllocnoHardRegno(a, 4, 8); got != 4 {
		t.Errorf("GetAllocnoHardRegno = %d, want 4 (no SUBREG offset)", got)
	}
}

func TestGetAllocnoRegHardRegnoIsInverse(t *testing.T) {
	a := NewInsnAllocno(0, Location{SubregByte: 8}, lir.Mode{Name: "i32", Size: 4}, lir.IOIn, -1)

	container := GetAllocnoHardRegno(a, 10, 16)
	if got := GetAllocnoRegHardRegno(a, container); got != 10 {
		t.Errorf("GetAllocnoRegHardRegno(GetAllocnoHardRegno(x)) = %d, want 10", got)
	}
}
