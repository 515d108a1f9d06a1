package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetAppointmentByIDInput identifies a single appointment record.
type GetAppointmentByIDInput struct {
	AppointmentID string `json:"appointment_id" description:"The FHIR Appointment id to retrieve"`
}

// GetAppointmentByID retrieves a specific appointment by FHIR id.
func (s *Service) GetAppointmentByID(ctx context.Context, in *GetAppointmentByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.AppointmentID == "" {
		return missing("appointment_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceAppointment, in.AppointmentID)
	if err != nil {
		return s.fail("get_appointment_by_id", err)
	}
	return result(doc)
}

// GetPatientAppointmentsInput carries the patient appointment search
// arguments. Bare dates gain a time component before dispatch.
type GetPatientAppointmentsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date in YYYY-MM-DD format, automatically widened to instant precision"`
	Status    *string `json:"status,omitempty" description:"Optional filter by status (proposed, pending, booked, arrived, fulfilled, cancelled)"`
}

// GetPatientAppointments retrieves appointments for a patient.
func (s *Service) GetPatientAppointments(ctx context.Context, in *GetPatientAppointmentsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		SetDate("date", strVal(in.Date)).
		Set("status", strVal(in.Status))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceAppointment, params)
	if err != nil {
		return s.fail("get_patient_appointments", err)
	}
	return result(doc)
}

// SearchAppointmentsByDateInput carries the date search arguments.
type SearchAppointmentsByDateInput struct {
	Date   string  `json:"date" description:"Appointment date in YYYY-MM-DD format, automatically widened to instant precision"`
	Status *string `json:"status,omitempty" description:"Optional filter by status (proposed, pending, booked, arrived, fulfilled, cancelled)"`
}

// SearchAppointmentsByDate searches appointments on a given date.
func (s *Service) SearchAppointmentsByDate(ctx context.Context, in *SearchAppointmentsByDateInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.Date == "" {
		return missing("date")
	}
	params := fhir.NewSearchParams().
		SetDate("date", in.Date).
		Set("status", strVal(in.Status))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceAppointment, params)
	if err != nil {
		return s.fail("search_appointments_by_date", err)
	}
	return result(doc)
}
