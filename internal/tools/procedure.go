package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetProcedureByIDInput identifies a single procedure record.
type GetProcedureByIDInput struct {
	ProcedureID string `json:"procedure_id" description:"The FHIR Procedure id to retrieve"`
}

// GetProcedureByID retrieves a specific procedure by FHIR id.
func (s *Service) GetProcedureByID(ctx context.Context, in *GetProcedureByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.ProcedureID == "" {
		return missing("procedure_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceProcedure, in.ProcedureID)
	if err != nil {
		return s.fail("get_procedure_by_id", err)
	}
	return result(doc)
}

// GetPatientProceduresInput carries the patient procedure search arguments.
type GetPatientProceduresInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
	Status    *string `json:"status,omitempty" description:"Optional filter by status (preparation, in-progress, completed, entered-in-error)"`
}

// GetPatientProcedures retrieves procedures for a patient.
func (s *Service) GetPatientProcedures(ctx context.Context, in *GetPatientProceduresInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("date", strVal(in.Date)).
		Set("status", strVal(in.Status))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceProcedure, params)
	if err != nil {
		return s.fail("get_patient_procedures", err)
	}
	return result(doc)
}
