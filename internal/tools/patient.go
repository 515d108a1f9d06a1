package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/pkg/fhirmodels"
)

// GetPatientByIDInput identifies a single patient record.
type GetPatientByIDInput struct {
	PatientID string `json:"patient_id" description:"The FHIR patient id to retrieve"`
}

// GetPatientByID retrieves a specific patient by FHIR id.
func (s *Service) GetPatientByID(ctx context.Context, in *GetPatientByIDInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PatientID == "" {
		return missing("patient_id")
	}
	doc, err := s.client.Read(ctx, fhirmodels.ResourcePatient, in.PatientID)
	if err != nil {
		return s.fail("get_patient_by_id", err)
	}
	return result(doc)
}

// SearchPatientsByNameInput carries the name search arguments.
type SearchPatientsByNameInput struct {
	GivenName  *string `json:"given_name,omitempty" description:"Patient's given (first) name"`
	FamilyName *string `json:"family_name,omitempty" description:"Patient's family (last) name"`
}

// SearchPatientsByName searches patients by given and/or family name.
func (s *Service) SearchPatientsByName(ctx context.Context, in *SearchPatientsByNameInput) (*schema.CallToolResult, *jsonrpc.Error) {
	params := fhir.NewSearchParams().
		Set("given", strVal(in.GivenName)).
		Set("family", strVal(in.FamilyName))

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_name", err)
	}
	return result(doc)
}

// SearchPatientsByIdentifierInput carries an identifier search.
type SearchPatientsByIdentifierInput struct {
	IdentifierType  string `json:"identifier_type" description:"Type of identifier, e.g. MR or SS"`
	IdentifierValue string `json:"identifier_value" description:"The identifier value to search for"`
}

// SearchPatientsByIdentifier searches patients by a typed identifier such as
// an MRN or SSN, encoded as type|value.
func (s *Service) SearchPatientsByIdentifier(ctx context.Context, in *SearchPatientsByIdentifierInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.IdentifierType == "" {
		return missing("identifier_type")
	}
	if in.IdentifierValue == "" {
		return missing("identifier_value")
	}
	params := fhir.NewSearchParams().
		Set("identifier", in.IdentifierType+"|"+in.IdentifierValue)

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_identifier", err)
	}
	return result(doc)
}

// SearchPatientsByBirthdateInput carries a birthdate search.
type SearchPatientsByBirthdateInput struct {
	Birthdate string `json:"birthdate" description:"Patient's birth date in YYYY-MM-DD format"`
}

// SearchPatientsByBirthdate searches patients by date of birth.
func (s *Service) SearchPatientsByBirthdate(ctx context.Context, in *SearchPatientsByBirthdateInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.Birthdate == "" {
		return missing("birthdate")
	}
	params := fhir.NewSearchParams().Set("birthdate", in.Birthdate)

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_birthdate", err)
	}
	return result(doc)
}

// SearchPatientsByPhoneInput carries a phone number search.
type SearchPatientsByPhoneInput struct {
	PhoneNumber string `json:"phone_number" description:"Patient's phone number"`
}

// SearchPatientsByPhone searches patients by telecom value.
func (s *Service) SearchPatientsByPhone(ctx context.Context, in *SearchPatientsByPhoneInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.PhoneNumber == "" {
		return missing("phone_number")
	}
	params := fhir.NewSearchParams().Set("telecom", in.PhoneNumber)

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_phone", err)
	}
	return result(doc)
}

// SearchPatientsByEmailInput carries an email search.
type SearchPatientsByEmailInput struct {
	Email string `json:"email" description:"Patient's email address"`
}

// SearchPatientsByEmail searches patients by email address.
func (s *Service) SearchPatientsByEmail(ctx context.Context, in *SearchPatientsByEmailInput) (*schema.CallToolResult, *jsonrpc.Error) {
	if in.Email == "" {
		return missing("email")
	}
	params := fhir.NewSearchParams().Set("email", in.Email)

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_email", err)
	}
	return result(doc)
}

// SearchPatientsByAddressInput carries the address search arguments.
type SearchPatientsByAddressInput struct {
	PostalCode *string `json:"postal_code,omitempty" description:"Address postal code"`
	City       *string `json:"city,omitempty" description:"Address city"`
	State      *string `json:"state,omitempty" description:"Address state"`
}

// SearchPatientsByAddress searches patients by address components.
func (s *Service) SearchPatientsByAddress(ctx context.Context, in *SearchPatientsByAddressInput) (*schema.CallToolResult, *jsonrpc.Error) {
	params := fhir.NewSearchParams().
		Set("address-postalcode", strVal(in.PostalCode)).
		Set("address-city", strVal(in.City)).
		Set("address-state", strVal(in.State))

	doc, err := s.client.Search(ctx, fhirmodels.ResourcePatient, params)
	if err != nil {
		return s.fail("search_patients_by_address", err)
	}
	return result(doc)
}
