package validator

import "testing"

type sample struct {
	Kind  string   `json:"kind" validate:"required,oneof=PHONE VIDEO"`
	Slots []string `json:"slots" validate:"min=1,max=5"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{Kind: "FAX"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	fields := FieldErrors(err)
	if fields["sample.kind"] != "oneof" {
		t.Fatalf("expected kind oneof failure, got %v", fields)
	}
	if fields["sample.slots"] != "min" {
		t.Fatalf("expected slots min failure, got %v", fields)
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
