package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
)

// ---------------------------------------------------------------------------
// Fake client
// ---------------------------------------------------------------------------

type readCall struct {
	resourceType string
	id           string
}

type searchCall struct {
	resourceType string
	params       url.Values
}

// fakeClient records dispatcher calls and plays back a canned document.
type fakeClient struct {
	reads         []readCall
	searches      []searchCall
	metadataCalls int
	doc           map[string]any
	err           error
}

func (f *fakeClient) Read(ctx context.Context, resourceType, id string) (map[string]any, error) {
	f.reads = append(f.reads, readCall{resourceType, id})
	return f.doc, f.err
}

func (f *fakeClient) Search(ctx context.Context, resourceType string, params *fhir.SearchParams) (map[string]any, error) {
	var vals url.Values
	if params != nil {
		vals = params.Values()
	}
	f.searches = append(f.searches, searchCall{resourceType, vals})
	return f.doc, f.err
}

func (f *fakeClient) Metadata(ctx context.Context) (map[string]any, error) {
	f.metadataCalls++
	return f.doc, f.err
}

func newTestService(t *testing.T, client *fakeClient) *Service {
	t.Helper()
	if client.doc == nil {
		client.doc = map[string]any{"resourceType": "Bundle", "total": float64(0)}
	}
	return NewService(client, zerolog.Nop())
}

func (f *fakeClient) lastSearch(t *testing.T) searchCall {
	t.Helper()
	if len(f.searches) == 0 {
		t.Fatal("no search call recorded")
	}
	return f.searches[len(f.searches)-1]
}

func assertSuccess(t *testing.T, res *schema.CallToolResult, jerr *jsonrpc.Error) {
	t.Helper()
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	if res.IsError != nil && *res.IsError {
		t.Fatalf("tool error: %v", res.Content)
	}
}

func assertToolError(t *testing.T, res *schema.CallToolResult, jerr *jsonrpc.Error, wantSubstr string) {
	t.Helper()
	if jerr != nil {
		t.Fatalf("expected tool error result, got jsonrpc error: %v", jerr)
	}
	if res == nil || res.IsError == nil || !*res.IsError {
		t.Fatalf("expected IsError result, got %+v", res)
	}
	if len(res.Content) == 0 || !strings.Contains(res.Content[0].Text, wantSubstr) {
		t.Fatalf("error text = %v, want substring %q", res.Content, wantSubstr)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestGetPatientByID(t *testing.T) {
	client := &fakeClient{doc: map[string]any{"resourceType": "Patient", "id": "12345"}}
	svc := newTestService(t, client)

	res, jerr := svc.GetPatientByID(context.Background(), &GetPatientByIDInput{PatientID: "12345"})
	assertSuccess(t, res, jerr)

	if len(client.reads) != 1 || client.reads[0] != (readCall{"Patient", "12345"}) {
		t.Errorf("reads = %v", client.reads)
	}
	if res.StructuredContent["id"] != "12345" {
		t.Errorf("structured content = %v", res.StructuredContent)
	}

	// Text content mirrors the document as compact JSON.
	var echoed map[string]any
	if err := json.Unmarshal([]byte(res.Content[0].Text), &echoed); err != nil {
		t.Fatalf("text content is not JSON: %v", err)
	}
	if echoed["resourceType"] != "Patient" {
		t.Errorf("text content = %v", echoed)
	}
}

func TestRequiredIDValidatedBeforeDispatch(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	res, jerr := svc.GetPatientByID(context.Background(), &GetPatientByIDInput{})
	assertToolError(t, res, jerr, "patient_id is required")

	if len(client.reads) != 0 || len(client.searches) != 0 {
		t.Error("validation failure must not reach the network")
	}
}

// Every read tool targets its resource type.
func TestReadToolsMapResourceTypes(t *testing.T) {
	tests := []struct {
		name         string
		call         func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error)
		wantResource string
		wantID       string
	}{
		{"allergy", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetAllergyByID(context.Background(), &GetAllergyByIDInput{AllergyID: "a1"})
		}, "AllergyIntolerance", "a1"},
		{"condition", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetConditionByID(context.Background(), &GetConditionByIDInput{ConditionID: "c1"})
		}, "Condition", "c1"},
		{"procedure", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetProcedureByID(context.Background(), &GetProcedureByIDInput{ProcedureID: "p1"})
		}, "Procedure", "p1"},
		{"encounter", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetEncounterByID(context.Background(), &GetEncounterByIDInput{EncounterID: "e1"})
		}, "Encounter", "e1"},
		{"diagnostic report", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetDiagnosticReportByID(context.Background(), &GetDiagnosticReportByIDInput{ReportID: "r1"})
		}, "DiagnosticReport", "r1"},
		{"observation", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetObservationByID(context.Background(), &GetObservationByIDInput{ObservationID: "o1"})
		}, "Observation", "o1"},
		{"immunization", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetImmunizationByID(context.Background(), &GetImmunizationByIDInput{ImmunizationID: "i1"})
		}, "Immunization", "i1"},
		{"medication request", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetMedicationRequestByID(context.Background(), &GetMedicationRequestByIDInput{MedicationRequestID: "m1"})
		}, "MedicationRequest", "m1"},
		{"appointment", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetAppointmentByID(context.Background(), &GetAppointmentByIDInput{AppointmentID: "ap1"})
		}, "Appointment", "ap1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			svc := newTestService(t, client)

			res, jerr := tt.call(svc)
			assertSuccess(t, res, jerr)

			if len(client.reads) != 1 || client.reads[0] != (readCall{tt.wantResource, tt.wantID}) {
				t.Errorf("reads = %v, want [{%s %s}]", client.reads, tt.wantResource, tt.wantID)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Patient searches
// ---------------------------------------------------------------------------

func TestSearchPatientsByName(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	given, family := "John", "Smith"
	res, jerr := svc.SearchPatientsByName(context.Background(), &SearchPatientsByNameInput{
		GivenName:  &given,
		FamilyName: &family,
	})
	assertSuccess(t, res, jerr)

	call := client.lastSearch(t)
	if call.resourceType != "Patient" {
		t.Errorf("resource = %q", call.resourceType)
	}
	if call.params.Get("given") != "John" || call.params.Get("family") != "Smith" {
		t.Errorf("params = %v", call.params)
	}
}

func TestSearchPatientsByNameOmitsUnsetArguments(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	given := "John"
	_, jerr := svc.SearchPatientsByName(context.Background(), &SearchPatientsByNameInput{GivenName: &given})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}

	call := client.lastSearch(t)
	if _, present := call.params["family"]; present {
		t.Errorf("unset family leaked into params: %v", call.params)
	}
}

func TestSearchPatientsByIdentifier(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	res, jerr := svc.SearchPatientsByIdentifier(context.Background(), &SearchPatientsByIdentifierInput{
		IdentifierType:  "MR",
		IdentifierValue: "7654321",
	})
	assertSuccess(t, res, jerr)

	if got := client.lastSearch(t).params.Get("identifier"); got != "MR|7654321" {
		t.Errorf("identifier = %q", got)
	}
}

func TestSearchPatientsByIdentifierRequiresBothParts(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	res, jerr := svc.SearchPatientsByIdentifier(context.Background(), &SearchPatientsByIdentifierInput{
		IdentifierType: "MR",
	})
	assertToolError(t, res, jerr, "identifier_value is required")
	if len(client.searches) != 0 {
		t.Error("validation failure must not reach the network")
	}
}

func TestSearchPatientsByContactDetails(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	if _, jerr := svc.SearchPatientsByPhone(context.Background(), &SearchPatientsByPhoneInput{PhoneNumber: "555-0170"}); jerr != nil {
		t.Fatalf("phone: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("telecom"); got != "555-0170" {
		t.Errorf("telecom = %q", got)
	}

	if _, jerr := svc.SearchPatientsByEmail(context.Background(), &SearchPatientsByEmailInput{Email: "nancy@example.com"}); jerr != nil {
		t.Fatalf("email: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("email"); got != "nancy@example.com" {
		t.Errorf("email = %q", got)
	}
}

func TestSearchPatientsByBirthdate(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	if _, jerr := svc.SearchPatientsByBirthdate(context.Background(), &SearchPatientsByBirthdateInput{Birthdate: "1990-03-10"}); jerr != nil {
		t.Fatalf("birthdate: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("birthdate"); got != "1990-03-10" {
		t.Errorf("birthdate = %q", got)
	}
}

func TestSearchPatientsByAddress(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	postal, city, state := "64108", "Kansas City", "MO"
	_, jerr := svc.SearchPatientsByAddress(context.Background(), &SearchPatientsByAddressInput{
		PostalCode: &postal,
		City:       &city,
		State:      &state,
	})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}

	params := client.lastSearch(t).params
	if params.Get("address-postalcode") != "64108" ||
		params.Get("address-city") != "Kansas City" ||
		params.Get("address-state") != "MO" {
		t.Errorf("params = %v", params)
	}
}

// ---------------------------------------------------------------------------
// Patient-scoped clinical searches
// ---------------------------------------------------------------------------

func TestPatientScopedSearches(t *testing.T) {
	status := "active"
	date := "ge2024-01-01"

	tests := []struct {
		name         string
		call         func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error)
		wantResource string
		wantParams   map[string]string
	}{
		{"allergies", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetPatientAllergies(context.Background(), &GetPatientAllergiesInput{PatientID: "p1", ClinicalStatus: &status})
		}, "AllergyIntolerance", map[string]string{"patient": "p1", "clinical-status": "active"}},
		{"conditions", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			category := "problem-list-item"
			return svc.GetPatientConditions(context.Background(), &GetPatientConditionsInput{PatientID: "p1", ClinicalStatus: &status, Category: &category})
		}, "Condition", map[string]string{"patient": "p1", "clinical-status": "active", "category": "problem-list-item"}},
		{"procedures", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetPatientProcedures(context.Background(), &GetPatientProceduresInput{PatientID: "p1", Date: &date})
		}, "Procedure", map[string]string{"patient": "p1", "date": "ge2024-01-01"}},
		{"encounters", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			class := "AMB"
			return svc.GetPatientEncounters(context.Background(), &GetPatientEncountersInput{PatientID: "p1", EncounterClass: &class})
		}, "Encounter", map[string]string{"patient": "p1", "class": "AMB"}},
		{"diagnostic reports", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			category := "LAB"
			return svc.GetPatientDiagnosticReports(context.Background(), &GetPatientDiagnosticReportsInput{PatientID: "p1", Category: &category})
		}, "DiagnosticReport", map[string]string{"patient": "p1", "category": "LAB"}},
		{"observations", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			code := "85354-9"
			return svc.GetPatientObservations(context.Background(), &GetPatientObservationsInput{PatientID: "p1", Code: &code})
		}, "Observation", map[string]string{"patient": "p1", "code": "85354-9"}},
		{"immunizations", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			return svc.GetPatientImmunizations(context.Background(), &GetPatientImmunizationsInput{PatientID: "p1", Date: &date})
		}, "Immunization", map[string]string{"patient": "p1", "date": "ge2024-01-01"}},
		{"medication requests", func(svc *Service) (*schema.CallToolResult, *jsonrpc.Error) {
			intent := "order"
			return svc.GetPatientMedicationRequests(context.Background(), &GetPatientMedicationRequestsInput{PatientID: "p1", Status: &status, Intent: &intent})
		}, "MedicationRequest", map[string]string{"patient": "p1", "status": "active", "intent": "order"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			svc := newTestService(t, client)

			res, jerr := tt.call(svc)
			assertSuccess(t, res, jerr)

			call := client.lastSearch(t)
			if call.resourceType != tt.wantResource {
				t.Errorf("resource = %q, want %q", call.resourceType, tt.wantResource)
			}
			for k, v := range tt.wantParams {
				if got := call.params.Get(k); got != v {
					t.Errorf("param %s = %q, want %q", k, got, v)
				}
			}
			if len(call.params) != len(tt.wantParams) {
				t.Errorf("extra params: %v", call.params)
			}
		})
	}
}

func TestPatientScopedSearchesRequirePatientID(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	res, jerr := svc.GetPatientAllergies(context.Background(), &GetPatientAllergiesInput{})
	assertToolError(t, res, jerr, "patient_id is required")
	if len(client.searches) != 0 {
		t.Error("validation failure must not reach the network")
	}
}

// ---------------------------------------------------------------------------
// Observation shortcuts
// ---------------------------------------------------------------------------

func TestVitalSignsPinsCategory(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	_, jerr := svc.GetPatientVitalSigns(context.Background(), &GetPatientVitalSignsInput{PatientID: "p1"})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("category"); got != "vital-signs" {
		t.Errorf("category = %q", got)
	}
}

func TestLabResultsPinsCategory(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	_, jerr := svc.GetPatientLabResults(context.Background(), &GetPatientLabResultsInput{PatientID: "p1"})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("category"); got != "laboratory" {
		t.Errorf("category = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Appointment date handling
// ---------------------------------------------------------------------------

func TestPatientAppointmentsWidenBareDate(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	date := "2024-01-15"
	_, jerr := svc.GetPatientAppointments(context.Background(), &GetPatientAppointmentsInput{
		PatientID: "p1",
		Date:      &date,
	})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}
	if got := client.lastSearch(t).params.Get("date"); got != "2024-01-15T00:00:00.000Z" {
		t.Errorf("date = %q", got)
	}
}

func TestSearchAppointmentsByDateKeepsPrefix(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	status := "booked"
	_, jerr := svc.SearchAppointmentsByDate(context.Background(), &SearchAppointmentsByDateInput{
		Date:   "ge2024-01-15",
		Status: &status,
	})
	if jerr != nil {
		t.Fatalf("jsonrpc error: %v", jerr)
	}

	params := client.lastSearch(t).params
	if got := params.Get("date"); got != "ge2024-01-15T00:00:00.000Z" {
		t.Errorf("date = %q", got)
	}
	if got := params.Get("status"); got != "booked" {
		t.Errorf("status = %q", got)
	}
}

func TestSearchAppointmentsByDateRequiresDate(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)

	res, jerr := svc.SearchAppointmentsByDate(context.Background(), &SearchAppointmentsByDateInput{})
	assertToolError(t, res, jerr, "date is required")
}

// ---------------------------------------------------------------------------
// Capability statement and errors
// ---------------------------------------------------------------------------

func TestCapabilityStatement(t *testing.T) {
	client := &fakeClient{doc: map[string]any{"resourceType": "CapabilityStatement", "fhirVersion": "4.0.1"}}
	svc := newTestService(t, client)

	res, jerr := svc.GetCapabilityStatement(context.Background(), &GetCapabilityStatementInput{})
	assertSuccess(t, res, jerr)

	if client.metadataCalls != 1 {
		t.Errorf("metadata calls = %d", client.metadataCalls)
	}
	if res.StructuredContent["fhirVersion"] != "4.0.1" {
		t.Errorf("structured content = %v", res.StructuredContent)
	}
}

func TestDomainErrorBecomesToolError(t *testing.T) {
	client := &fakeClient{err: &fhir.NotFoundError{Resource: "Patient", ID: "nope"}}
	svc := newTestService(t, client)

	res, jerr := svc.GetPatientByID(context.Background(), &GetPatientByIDInput{PatientID: "nope"})
	assertToolError(t, res, jerr, "Patient/nope not found")
}
