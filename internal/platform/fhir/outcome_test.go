package fhir

import "testing"

func TestDecodeOperationOutcome(t *testing.T) {
	body := []byte(`{
		"resourceType": "OperationOutcome",
		"issue": [
			{"severity": "error", "code": "invalid", "diagnostics": "bad parameter"},
			{"severity": "warning", "code": "processing", "details": {"text": "partial result"}}
		]
	}`)

	oo, ok := DecodeOperationOutcome(body)
	if !ok {
		t.Fatal("expected OperationOutcome to decode")
	}
	if len(oo.Issue) != 2 {
		t.Fatalf("issues = %d, want 2", len(oo.Issue))
	}
	if got := oo.Diagnostics(); got != "error: bad parameter; warning: partial result" {
		t.Errorf("Diagnostics() = %q", got)
	}
}

func TestDecodeOperationOutcomeFallsBackToCode(t *testing.T) {
	body := []byte(`{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"not-found"}]}`)

	oo, ok := DecodeOperationOutcome(body)
	if !ok {
		t.Fatal("expected OperationOutcome to decode")
	}
	if got := oo.Diagnostics(); got != "error: not-found" {
		t.Errorf("Diagnostics() = %q", got)
	}
}

func TestDecodeOperationOutcomeRejectsOtherBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"different resource", `{"resourceType":"Patient","id":"1"}`},
		{"not json", `<html>502</html>`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := DecodeOperationOutcome([]byte(tt.body)); ok {
				t.Error("expected decode to report not-an-outcome")
			}
		})
	}
}
