package tools

import (
	proto "github.com/viant/mcp-protocol/server"
)

// Register wires every tool onto the handler registry. Tool names and
// argument shapes follow the FHIR resource they serve; all results are
// pass-through FHIR JSON documents.
func Register(h *proto.DefaultHandler, svc *Service) error {
	registrations := []func() error{
		// Patient
		func() error {
			return proto.RegisterTool[*GetPatientByIDInput, *Document](h.Registry,
				"get_patient_by_id",
				"Retrieve a specific patient by their FHIR patient id",
				svc.GetPatientByID)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByNameInput, *Document](h.Registry,
				"search_patients_by_name",
				"Search for patients by given and/or family name",
				svc.SearchPatientsByName)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByIdentifierInput, *Document](h.Registry,
				"search_patients_by_identifier",
				"Search for patients by identifier such as an MRN or SSN",
				svc.SearchPatientsByIdentifier)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByBirthdateInput, *Document](h.Registry,
				"search_patients_by_birthdate",
				"Search for patients by birth date",
				svc.SearchPatientsByBirthdate)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByPhoneInput, *Document](h.Registry,
				"search_patients_by_phone",
				"Search for patients by phone number",
				svc.SearchPatientsByPhone)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByEmailInput, *Document](h.Registry,
				"search_patients_by_email",
				"Search for patients by email address",
				svc.SearchPatientsByEmail)
		},
		func() error {
			return proto.RegisterTool[*SearchPatientsByAddressInput, *Document](h.Registry,
				"search_patients_by_address",
				"Search for patients by address components",
				svc.SearchPatientsByAddress)
		},

		// AllergyIntolerance
		func() error {
			return proto.RegisterTool[*GetAllergyByIDInput, *Document](h.Registry,
				"get_allergy_by_id",
				"Retrieve a specific allergy by its FHIR id",
				svc.GetAllergyByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientAllergiesInput, *Document](h.Registry,
				"get_patient_allergies",
				"Retrieve allergies for a specific patient",
				svc.GetPatientAllergies)
		},

		// Condition
		func() error {
			return proto.RegisterTool[*GetConditionByIDInput, *Document](h.Registry,
				"get_condition_by_id",
				"Retrieve a specific condition by its FHIR id",
				svc.GetConditionByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientConditionsInput, *Document](h.Registry,
				"get_patient_conditions",
				"Retrieve conditions for a specific patient",
				svc.GetPatientConditions)
		},

		// Procedure
		func() error {
			return proto.RegisterTool[*GetProcedureByIDInput, *Document](h.Registry,
				"get_procedure_by_id",
				"Retrieve a specific procedure by its FHIR id",
				svc.GetProcedureByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientProceduresInput, *Document](h.Registry,
				"get_patient_procedures",
				"Retrieve procedures for a specific patient",
				svc.GetPatientProcedures)
		},

		// Encounter
		func() error {
			return proto.RegisterTool[*GetEncounterByIDInput, *Document](h.Registry,
				"get_encounter_by_id",
				"Retrieve a specific encounter by its FHIR id",
				svc.GetEncounterByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientEncountersInput, *Document](h.Registry,
				"get_patient_encounters",
				"Retrieve encounters for a specific patient",
				svc.GetPatientEncounters)
		},

		// DiagnosticReport
		func() error {
			return proto.RegisterTool[*GetDiagnosticReportByIDInput, *Document](h.Registry,
				"get_diagnostic_report_by_id",
				"Retrieve a specific diagnostic report by its FHIR id",
				svc.GetDiagnosticReportByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientDiagnosticReportsInput, *Document](h.Registry,
				"get_patient_diagnostic_reports",
				"Retrieve diagnostic reports for a specific patient",
				svc.GetPatientDiagnosticReports)
		},

		// Observation
		func() error {
			return proto.RegisterTool[*GetObservationByIDInput, *Document](h.Registry,
				"get_observation_by_id",
				"Retrieve a specific observation by its FHIR id",
				svc.GetObservationByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientObservationsInput, *Document](h.Registry,
				"get_patient_observations",
				"Retrieve observations for a specific patient",
				svc.GetPatientObservations)
		},
		func() error {
			return proto.RegisterTool[*GetPatientVitalSignsInput, *Document](h.Registry,
				"get_patient_vital_signs",
				"Retrieve vital sign observations for a specific patient",
				svc.GetPatientVitalSigns)
		},
		func() error {
			return proto.RegisterTool[*GetPatientLabResultsInput, *Document](h.Registry,
				"get_patient_lab_results",
				"Retrieve laboratory results for a specific patient",
				svc.GetPatientLabResults)
		},

		// Immunization
		func() error {
			return proto.RegisterTool[*GetImmunizationByIDInput, *Document](h.Registry,
				"get_immunization_by_id",
				"Retrieve a specific immunization by its FHIR id",
				svc.GetImmunizationByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientImmunizationsInput, *Document](h.Registry,
				"get_patient_immunizations",
				"Retrieve immunizations for a specific patient",
				svc.GetPatientImmunizations)
		},

		// MedicationRequest
		func() error {
			return proto.RegisterTool[*GetMedicationRequestByIDInput, *Document](h.Registry,
				"get_medication_request_by_id",
				"Retrieve a specific medication request by its FHIR id",
				svc.GetMedicationRequestByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientMedicationRequestsInput, *Document](h.Registry,
				"get_patient_medication_requests",
				"Retrieve medication requests for a specific patient",
				svc.GetPatientMedicationRequests)
		},

		// Appointment
		func() error {
			return proto.RegisterTool[*GetAppointmentByIDInput, *Document](h.Registry,
				"get_appointment_by_id",
				"Retrieve a specific appointment by its FHIR id",
				svc.GetAppointmentByID)
		},
		func() error {
			return proto.RegisterTool[*GetPatientAppointmentsInput, *Document](h.Registry,
				"get_patient_appointments",
				"Retrieve appointments for a specific patient",
				svc.GetPatientAppointments)
		},
		func() error {
			return proto.RegisterTool[*SearchAppointmentsByDateInput, *Document](h.Registry,
				"search_appointments_by_date",
				"Search for appointments by date",
				svc.SearchAppointmentsByDate)
		},

		// Utility
		func() error {
			return proto.RegisterTool[*GetCapabilityStatementInput, *Document](h.Registry,
				"get_fhir_capability_statement",
				"Retrieve the FHIR server's capability statement (metadata)",
				svc.GetCapabilityStatement)
		},
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
