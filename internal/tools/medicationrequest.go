package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetMedicationRequestByIDInput identifies a single medication request.
type GetMedicationRequestByIDInput struct {
	MedicationRequestID string `json:"medication_request_id" description:"The FHIR MedicationRequest id to retrieve"`
}

// GetMedicationRequestByID retrieves a specific medication request by FHIR id.
func (s *Service) GetMedicationRequestByID(ctx context.Context, in *GetMedicationRequestByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.MedicationRequestID == "" {
		return missing("medication_request_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceMedicationRequest, in.MedicationRequestID)
	if err != nil {
		return s.fail("get_medication_request_by_id", err)
	}
	return result(doc)
}

// GetPatientMedicationRequestsInput carries the medication search arguments.
type GetPatientMedicationRequestsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Status    *string `json:"status,omitempty" description:"Optional filter by status (active, on-hold, cancelled, completed, stopped)"`
	Intent    *string `json:"intent,omitempty" description:"Optional filter by intent (proposal, plan, order)"`
}

// GetPatientMedicationRequests retrieves medication requests for a patient.
func (s *Service) GetPatientMedicationRequests(ctx context.Context, in *GetPatientMedicationRequestsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("status", strVal(in.Status)).
		Set("intent", strVal(in.Intent))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceMedicationRequest, params)
	if err != nil {
		return s.fail("get_patient_medication_requests", err)
	}
	return result(doc)
}
