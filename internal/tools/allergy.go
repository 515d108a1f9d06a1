package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetAllergyByIDInput identifies a single allergy record.
type GetAllergyByIDInput struct {
	AllergyID string `json:"allergy_id" description:"The FHIR AllergyIntolerance id to retrieve"`
}

// GetAllergyByID retrieves a specific allergy by FHIR id.
func (s *Service) GetAllergyByID(ctx context.Context, in *GetAllergyByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.AllergyID == "" {
		return missing("allergy_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceAllergyIntolerance, in.AllergyID)
	if err != nil {
		return s.fail("get_allergy_by_id", err)
	}
	return result(doc)
}

// GetPatientAllergiesInput carries the patient allergy search arguments.
type GetPatientAllergiesInput struct {
	PatientID      string  `json:"patient_id" description:"The FHIR patient id"`
	ClinicalStatus *string `json:"clinical_status,omitempty" description:"Optional filter by clinical status (active, inactive, resolved)"`
}

// GetPatientAllergies retrieves allergies for a patient.
func (s *Service) GetPatientAllergies(ctx context.Context, in *GetPatientAllergiesInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("clinical-status", strVal(in.ClinicalStatus))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceAllergyIntolerance, params)
	if err != nil {
		return s.fail("get_patient_allergies", err)
	}
	return result(doc)
}
