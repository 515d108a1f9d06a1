package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetEncounterByIDInput identifies a single encounter record.
type GetEncounterByIDInput struct {
	EncounterID string `json:"encounter_id" description:"The FHIR Encounter id to retrieve"`
}

// GetEncounterByID retrieves a specific encounter by FHIR id.
func (s *Service) GetEncounterByID(ctx context.Context, in *GetEncounterByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.EncounterID == "" {
		return missing("encounter_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceEncounter, in.EncounterID)
	if err != nil {
		return s.fail("get_encounter_by_id", err)
	}
	return result(doc)
}

// GetPatientEncountersInput carries the patient encounter search arguments.
type GetPatientEncountersInput struct {
	PatientID      string  `json:"patient_id" description:"The FHIR patient id"`
	Date           *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
	Status         *string `json:"status,omitempty" description:"Optional filter by status (planned, arrived, in-progress, finished, cancelled)"`
	EncounterClass *string `json:"encounter_class,omitempty" description:"Optional filter by class (AMB, EMER, IMP, VR)"`
}

// GetPatientEncounters retrieves encounters for a patient.
func (s *Service) GetPatientEncounters(ctx context.Context, in *GetPatientEncountersInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("date", strVal(in.Date)).
		Set("status", strVal(in.Status)).
		Set("class", strVal(in.EncounterClass))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceEncounter, params)
	if err != nil {
		return s.fail("get_patient_encounters", err)
	}
	return result(doc)
}
