package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetImmunizationByIDInput identifies a single immunization record.
type GetImmunizationByIDInput struct {
	ImmunizationID string `json:"immunization_id" description:"The FHIR Immunization id to retrieve"`
}

// GetImmunizationByID retrieves a specific immunization by FHIR id.
func (s *Service) GetImmunizationByID(ctx context.Context, in *GetImmunizationByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.ImmunizationID == "" {
		return missing("immunization_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceImmunization, in.ImmunizationID)
	if err != nil {
		return s.fail("get_immunization_by_id", err)
	}
	return result(doc)
}

// GetPatientImmunizationsInput carries the immunization search arguments.
type GetPatientImmunizationsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
	Status    *string `json:"status,omitempty" description:"Optional filter by status (completed, entered-in-error, not-done)"`
}

// GetPatientImmunizations retrieves immunizations for a patient.
func (s *Service) GetPatientImmunizations(ctx context.Context, in *GetPatientImmunizationsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("date", strVal(in.Date)).
		Set("status", strVal(in.Status))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceImmunization, params)
	if err != nil {
		return s.fail("get_patient_immunizations", err)
	}
	return result(doc)
}
