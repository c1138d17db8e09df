package store

import (
	"testing"

	"github.com/FedeHorus/zipreport/model"
)

func sampleRow(contract string) model.SourceRow {
	return model.SourceRow{
		ContractName: contract,
		Zip:          "78701",
		BuyerName:    "Acme Corp",
		BuyerID:      "B-1",
		VerticalName: "home services",
		Status:       "Active",
	}
}

func TestEnsureUnsafe_CreatesOnce(t *testing.T) {
	cs := NewContractStore()

	first := cs.EnsureUnsafe(sampleRow("C1"))
	if first == nil {
		t.Fatal("EnsureUnsafe() returned nil record")
	}
	if first.BuyerName != "Acme Corp" {
		t.Errorf("BuyerName = %q, want Acme Corp", first.BuyerName)
	}

	later := sampleRow("C1")
	later.BuyerName = "Other Buyer"
	later.Status = "Inactive"
	second := cs.EnsureUnsafe(later)

	if second != first {
		t.Error("EnsureUnsafe() created a second record for the same contract")
	}
	if second.BuyerName != "Acme Corp" || second.Status != "Active" {
		t.Errorf("metadata overwritten on repeat sighting: BuyerName=%q Status=%q", second.BuyerName, second.Status)
	}
	if cs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cs.Len())
	}
}

func TestOrder_FirstSeen(t *testing.T) {
	cs := NewContractStore()
	for _, name := range []string{"C3", "C1", "C3", "C2", "C1"} {
		cs.EnsureUnsafe(sampleRow(name))
	}

	want := []string{"C3", "C1", "C2"}
	if len(cs.Order) != len(want) {
		t.Fatalf("Order = %v, want %v", cs.Order, want)
	}
	for i := range want {
		if cs.Order[i] != want[i] {
			t.Errorf("Order[%d] = %q, want %q", i, cs.Order[i], want[i])
		}
	}

	records := cs.InOrder()
	if len(records) != 3 {
		t.Fatalf("InOrder() returned %d records, want 3", len(records))
	}
	for i, rec := range records {
		if rec.Name != want[i] {
			t.Errorf("InOrder()[%d].Name = %q, want %q", i, rec.Name, want[i])
		}
	}
}

func TestGetUnsafe(t *testing.T) {
	cs := NewContractStore()
	cs.EnsureUnsafe(sampleRow("C1"))

	if rec := cs.GetUnsafe("C1"); rec == nil || rec.Name != "C1" {
		t.Errorf("GetUnsafe(C1) = %v, want record for C1", rec)
	}
	if rec := cs.GetUnsafe("missing"); rec != nil {
		t.Errorf("GetUnsafe(missing) = %v, want nil", rec)
	}
}

func TestResetUnsafe(t *testing.T) {
	cs := NewContractStore()
	cs.EnsureUnsafe(sampleRow("C1"))
	cs.EnsureUnsafe(sampleRow("C2"))

	cs.ResetUnsafe()

	if cs.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", cs.Len())
	}
	if len(cs.Order) != 0 {
		t.Errorf("Order after reset = %v, want empty", cs.Order)
	}

	// Store stays usable and order restarts.
	cs.EnsureUnsafe(sampleRow("C9"))
	if len(cs.Order) != 1 || cs.Order[0] != "C9" {
		t.Errorf("Order after reset+ensure = %v, want [C9]", cs.Order)
	}
}
