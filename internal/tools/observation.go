package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetObservationByIDInput identifies a single observation record.
type GetObservationByIDInput struct {
	ObservationID string `json:"observation_id" description:"The FHIR Observation id to retrieve"`
}

// GetObservationByID retrieves a specific observation by FHIR id.
func (s *Service) GetObservationByID(ctx context.Context, in *GetObservationByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.ObservationID == "" {
		return missing("observation_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceObservation, in.ObservationID)
	if err != nil {
		return s.fail("get_observation_by_id", err)
	}
	return result(doc)
}

// GetPatientObservationsInput carries the observation search arguments.
type GetPatientObservationsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Category  *string `json:"category,omitempty" description:"Optional filter by category (vital-signs, laboratory, social-history)"`
	Code      *string `json:"code,omitempty" description:"Optional filter by observation code (LOINC)"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
}

// GetPatientObservations retrieves observations for a patient.
func (s *Service) GetPatientObservations(ctx context.Context, in *GetPatientObservationsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("category", strVal(in.Category)).
		Set("code", strVal(in.Code)).
		Set("date", strVal(in.Date))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceObservation, params)
	if err != nil {
		return s.fail("get_patient_observations", err)
	}
	return result(doc)
}

// GetPatientVitalSignsInput carries the vital signs search arguments.
type GetPatientVitalSignsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
}

// GetPatientVitalSigns retrieves vital sign observations for a patient.
func (s *Service) GetPatientVitalSigns(ctx context.Context, in *GetPatientVitalSignsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("category", fhirmodels.ObsCategoryVitalSigns).
		Set("date", strVal(in.Date))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceObservation, params)
	if err != nil {
		return s.fail("get_patient_vital_signs", err)
	}
	return result(doc)
}

// GetPatientLabResultsInput carries the lab result search arguments.
type GetPatientLabResultsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
}

// GetPatientLabResults retrieves laboratory observations for a patient.
func (s *Service) GetPatientLabResults(ctx context.Context, in *GetPatientLabResultsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("category", fhirmodels.ObsCategoryLaboratory).
		Set("date", strVal(in.Date))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceObservation, params)
	if err != nil {
		return s.fail("get_patient_lab_results", err)
	}
	return result(doc)
}
