package fhir

import (
	"encoding/json"
	"strings"
)

// OperationOutcome is the FHIR R4 structure servers return to describe
// request failures. Only the fields needed for error reporting are decoded.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

// OperationOutcomeIssue is one issue within an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"`
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Expression  []string         `json:"expression,omitempty"`
}

// CodeableConcept carries the human-readable part of a coded value.
type CodeableConcept struct {
	Text string `json:"text,omitempty"`
}

// DecodeOperationOutcome parses body as an OperationOutcome. The second
// return is false when the body is not one (not JSON, or a different
// resourceType).
func DecodeOperationOutcome(body []byte) (*OperationOutcome, bool) {
	var oo OperationOutcome
	if err := json.Unmarshal(body, &oo); err != nil {
		return nil, false
	}
	if oo.ResourceType != "OperationOutcome" {
		return nil, false
	}
	return &oo, true
}

// Diagnostics flattens the outcome's issues into a single line for error
// messages. Issues with no diagnostic text fall back to details.text, then
// to the issue code.
func (o *OperationOutcome) Diagnostics() string {
	parts := make([]string, 0, len(o.Issue))
	for _, issue := range o.Issue {
		text := issue.Diagnostics
		if text == "" && issue.Details != nil {
			text = issue.Details.Text
		}
		if text == "" {
			text = issue.Code
		}
		if text == "" {
			continue
		}
		if issue.Severity != "" {
			text = issue.Severity + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "; ")
}
