package store

import (
	"testing"
)

func TestSetPriorAndList(t *testing.T) {
	db := testDB(t)

	if err := db.SetPrior("keys", "Entryway"); err != nil {
		t.Fatalf("SetPrior: %v", err)
	}
	if err := db.SetPrior("wallet", "Bedroom"); err != nil {
		t.Fatalf("SetPrior: %v", err)
	}

	priors, err := db.Priors()
	if err != nil {
		t.Fatalf("Priors: %v", err)
	}
	if len(priors) != 2 {
		t.Fatalf("got %d priors, want 2", len(priors))
	}
	if priors["keys"] != "Entryway" {
		t.Errorf("keys prior = %q, want Entryway", priors["keys"])
	}
	if priors["wallet"] != "Bedroom" {
		t.Errorf("wallet prior = %q, want Bedroom", priors["wallet"])
	}
}

func TestSetPriorRequiresObjectType(t *testing.T) {
	db := testDB(t)

	if err := db.SetPrior("", "Entryway"); err == nil {
		t.Error("expected error for empty object type")
	}
}

func TestSetPriorEmptyLabelDeletes(t *testing.T) {
	db := testDB(t)

	if err := db.SetPrior("keys", "Entryway"); err != nil {
		t.Fatalf("SetPrior: %v", err)
	}
	if err := db.SetPrior("keys", ""); err != nil {
		t.Fatalf("SetPrior delete: %v", err)
	}

	priors, err := db.Priors()
	if err != nil {
		t.Fatalf("Priors: %v", err)
	}
	if _, ok := priors["keys"]; ok {
		t.Error("prior should have been removed")
	}
}

func TestReplacePriors(t *testing.T) {
	db := testDB(t)

	db.SetPrior("keys", "Entryway")
	db.SetPrior("wallet", "Bedroom")

	err := db.ReplacePriors(map[string]string{
		"keys":    "Kitchen",
		"glasses": "Desk",
		"":        "ignored",
		"remote":  "",
	})
	if err != nil {
		t.Fatalf("ReplacePriors: %v", err)
	}

	priors, err := db.Priors()
	if err != nil {
		t.Fatalf("Priors: %v", err)
	}
	if len(priors) != 2 {
		t.Fatalf("got %d priors, want 2: %v", len(priors), priors)
	}
	if priors["keys"] != "Kitchen" {
		t.Errorf("keys prior = %q, want Kitchen", priors["keys"])
	}
	if priors["glasses"] != "Desk" {
		t.Errorf("glasses prior = %q, want Desk", priors["glasses"])
	}
	if _, ok := priors["wallet"]; ok {
		t.Error("wallet prior should have been dropped by replace")
	}
}

func TestPriorsEmpty(t *testing.T) {
	db := testDB(t)

	priors, err := db.Priors()
	if err != nil {
		t.Fatalf("Priors: %v", err)
	}
	if len(priors) != 0 {
		t.Errorf("got %d priors, want 0", len(priors))
	}
}
