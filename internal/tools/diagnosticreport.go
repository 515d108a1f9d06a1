package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetDiagnosticReportByIDInput identifies a single diagnostic report.
type GetDiagnosticReportByIDInput struct {
	ReportID string `json:"report_id" description:"The FHIR DiagnosticReport id to retrieve"`
}

// GetDiagnosticReportByID retrieves a specific diagnostic report by FHIR id.
func (s *Service) GetDiagnosticReportByID(ctx context.Context, in *GetDiagnosticReportByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.ReportID == "" {
		return missing("report_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourceDiagnosticReport, in.ReportID)
	if err != nil {
		return s.fail("get_diagnostic_report_by_id", err)
	}
	return result(doc)
}

// GetPatientDiagnosticReportsInput carries the report search arguments.
type GetPatientDiagnosticReportsInput struct {
	PatientID string  `json:"patient_id" description:"The FHIR patient id"`
	Category  *string `json:"category,omitempty" description:"Optional filter by category, e.g. LAB or RAD"`
	Date      *string `json:"date,omitempty" description:"Optional filter by date or date range, e.g. ge2024-01-01"`
	Status    *string `json:"status,omitempty" description:"Optional filter by status (registered, partial, preliminary, final)"`
}

// GetPatientDiagnosticReports retrieves diagnostic reports for a patient.
func (s *Service) GetPatientDiagnosticReports(ctx context.Context, in *GetPatientDiagnosticReportsInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	params := fhir.NewSearchParams().
		Set("patient", in.PatientID).
		Set("category", strVal(in.Category)).
		Set("date", strVal(in.Date)).
		Set("status", strVal(in.Status))

	doc, err := s.client.Search(ctx, fhirmodels.ResourceDiagnosticReport, params)
	if err != nil {
		return s.fail("get_patient_diagnostic_reports", err)
	}
	return result(doc)
}
