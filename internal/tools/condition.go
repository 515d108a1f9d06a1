package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetConditionByIDInput identifies a single condition record.
type GetConditionByIDInput struct {
	ConditionID string `json:"condition_id" description:"The FHIR Condition id to retrieve"`
}

// GetConditionByID retrieves a specific condition by FHIR id.
func (s *Service) GetConditionByID(ctx context.Context, in *GetConditionByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.ConditionID == "" {
		return missing("condition_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceCondition, in.ConditionID)
	if err != nil {
		return s.fail("get_condition_by_id", err)
	}
	return result(doc)
}

// GetPatientConditionsInput carries the patient condition search arguments.
type GetPatientConditionsInput struct {
	PatientID      string  `json:"patient_id" description:"The FHIR patient id"`
	ClinicalStatus *string `json:"clinical_status,omitempty" description:"Optional filter by clinical status (active, recurrence, relapse, inactive, remission, resolved)"`
	Category       *string `json:"category,omitempty" description:"Optional filter by category (problem-list-item, encounter-diagnosis)"`
}

// GetPatientConditions retrieves conditions for a patient.
func (s *Service) GetPatientConditions(ctx context.Context, in *GetPatientConditionsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("clinical-status", strVal(in.ClinicalStatus)).
		Set("category", strVal(in.Category))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceCondition, params)
	if err != nil {
		return s.fail("get_patient_conditions", err)
	}
	return result(doc)
}
