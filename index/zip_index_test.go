package index

import (
	"reflect"
	"testing"
)

func TestContractSet_AddHas(t *testing.T) {
	set := make(ContractSet)
	set.Add("C1")
	set.Add("C1")
	set.Add("C2")

	if len(set) != 2 {
		t.Errorf("set size = %d, want 2 (set semantics)", len(set))
	}
	if !set.Has("C1") || !set.Has("C2") {
		t.Error("expected C1 and C2 in set")
	}
	if set.Has("C3") {
		t.Error("did not expect C3 in set")
	}
}

func TestContractSet_Sorted(t *testing.T) {
	set := make(ContractSet)
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		set.Add(name)
	}
	want := []string{"Alpha", "Mid", "Zeta"}
	if got := set.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestContractSet_Others(t *testing.T) {
	set := make(ContractSet)
	for _, name := range []string{"C1", "C2", "C3"} {
		set.Add(name)
	}

	if got, want := set.Others("C2"), []string{"C1", "C3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Others(C2) = %v, want %v", got, want)
	}
	// Excluding an absent contract returns everything.
	if got, want := set.Others("C9"), []string{"C1", "C2", "C3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Others(C9) = %v, want %v", got, want)
	}
	// A contract alone in its ZIP has no others.
	solo := make(ContractSet)
	solo.Add("C1")
	if got := solo.Others("C1"); len(got) != 0 {
		t.Errorf("Others on singleton = %v, want empty", got)
	}
}

func TestZipIndex_AddUnsafe(t *testing.T) {
	zi := NewZipIndex()
	zi.AddUnsafe("78701", "C1")
	zi.AddUnsafe("78701", "C2")
	zi.AddUnsafe("78701", "C1") // duplicate association
	zi.AddUnsafe("02134", "C1")

	if zi.Len() != 2 {
		t.Errorf("Len() = %d, want 2", zi.Len())
	}
	if got, want := zi.ContractsForUnsafe("78701").Sorted(), []string{"C1", "C2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("contracts for 78701 = %v, want %v", got, want)
	}
	if got, want := zi.ContractsForUnsafe("02134").Sorted(), []string{"C1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("contracts for 02134 = %v, want %v", got, want)
	}
}

func TestZipIndex_ContractsForUnsafe_Unknown(t *testing.T) {
	zi := NewZipIndex()
	if set := zi.ContractsForUnsafe("99999"); set != nil {
		t.Errorf("ContractsForUnsafe(unknown) = %v, want nil", set)
	}
}

func TestZipIndex_ResetUnsafe(t *testing.T) {
	zi := NewZipIndex()
	zi.AddUnsafe("78701", "C1")
	zi.ResetUnsafe()

	if zi.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", zi.Len())
	}
	// The index stays usable after a reset.
	zi.AddUnsafe("10001", "C2")
	if !zi.ContractsForUnsafe("10001").Has("C2") {
		t.Error("expected C2 for 10001 after reset+add")
	}
}

func TestZipIndex_LeadingZerosPreserved(t *testing.T) {
	zi := NewZipIndex()
	zi.AddUnsafe("02134", "C1")
	zi.AddUnsafe("2134", "C2")

	// "02134" and "2134" are distinct keys; ZIPs are never numeric.
	if zi.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 distinct ZIP keys", zi.Len())
	}
	if zi.ContractsForUnsafe("02134").Has("C2") {
		t.Error("02134 and 2134 must not collapse to one key")
	}
}
