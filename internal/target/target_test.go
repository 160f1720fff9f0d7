package target

import "testing"

func TestHardRegSetHasAndWith(t *testing.T) {
	var s HardRegSet
	if !s.Empty() {
		t.Fatal("expected a zero-value HardRegSet to be empty")
	}
	s = s.With(RAX).With(RCX)
	if !s.Has(RAX) || !s.Has(RCX) {
		t.Error("expected both added registers to be present")
	}
	if s.Has(RDX) {
		t.Error("expected RDX to be absent")
	}
}

func TestHardRegSetWithoutRemoves(t *testing.T) {
	s := NewHardRegSet(RAX, RCX).Without(RAX)
	if s.Has(RAX) {
		t.Error("expected RAX removed")
	}
	if !s.Has(RCX) {
		t.Error("expected RCX to remain")
	}
}

func TestHardRegSetUnionAndIntersect(t *testing.T) {
	a := NewHardRegSet(RAX, RCX)
	b := NewHardRegSet(RCX, RDX)

	u := a.Union(b)
	if !u.Has(RAX) || !u.Has(RCX) || !u.Has(RDX) {
		t.Errorf("Union = %b, want all three registers", u)
	}

	i := a.Intersect(b)
	if i != NewHardRegSet(RCX) {
		t.Errorf("Intersect = %b, want just RCX", i)
	}
}

func TestHardRegSetDisjoint(t *testing.T) {
	a := NewHardRegSet(RAX)
	b := NewHardRegSet(RCX)
	if !a.Disjoint(b) {
		t.Error("expected disjoint sets to report disjoint")
	}
	if a.Disjoint(a) {
		t.Error("expected a set to not be disjoint from itself (nonempty)")
	}
}

func TestHardRegSetRegsOrdersAscending(t *testing.T) {
	s := NewHardRegSet(RCX, RAX, RDX)
	got := s.Regs(8)
	want := []HardReg{RAX, RCX, RDX}
	if len(got) != len(want) {
		t.Fatalf("Regs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Regs[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHardRegSetRegsRespectsLimit(t *testing.T) {
	s := NewHardRegSet(RAX, R8)
	got := s.Regs(2)
	if len(got) != 1 || got[0] != RAX {
		t.Errorf("Regs(2) = %v, want [RAX] (R8 is regno 3, past the limit)", got)
	}
}
