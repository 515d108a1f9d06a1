// Package fhirmodels holds shared FHIR R4 constants: the resource types the
// tools operate on and the value sets their search parameters accept.
package fhirmodels

// Resource types served by the tool surface.
const (
	ResourcePatient            = "Patient"
	ResourceAllergyIntolerance = "AllergyIntolerance"
	ResourceCondition          = "Condition"
	ResourceProcedure          = "Procedure"
	ResourceEncounter          = "Encounter"
	ResourceDiagnosticReport   = "DiagnosticReport"
	ResourceObservation        = "Observation"
	ResourceImmunization       = "Immunization"
	ResourceMedicationRequest  = "MedicationRequest"
	ResourceAppointment        = "Appointment"
)

// ObservationCategory codes (observation-category).
const (
	ObsCategoryVitalSigns    = "vital-signs"
	ObsCategoryLaboratory    = "laboratory"
	ObsCategoryImaging       = "imaging"
	ObsCategorySocialHistory = "social-history"
	ObsCategorySurvey        = "survey"
	ObsCategoryExam          = "exam"
	ObsCategoryProcedure     = "procedure"
	ObsCategoryActivity      = "activity"
	ObsCategoryTherapy       = "therapy"
)

// ConditionClinicalStatus codes (condition-clinical).
const (
	ConditionActive     = "active"
	ConditionRecurrence = "recurrence"
	ConditionRelapse    = "relapse"
	ConditionInactive   = "inactive"
	ConditionRemission  = "remission"
	ConditionResolved   = "resolved"
)

// AllergyClinicalStatus codes (allergyintolerance-clinical).
const (
	AllergyActive   = "active"
	AllergyInactive = "inactive"
	AllergyResolved = "resolved"
)

// EncounterStatus values per FHIR R4.
const (
	EncounterStatusPlanned        = "planned"
	EncounterStatusArrived        = "arrived"
	EncounterStatusTriaged        = "triaged"
	EncounterStatusInProgress     = "in-progress"
	EncounterStatusOnLeave        = "onleave"
	EncounterStatusFinished       = "finished"
	EncounterStatusCancelled      = "cancelled"
	EncounterStatusEnteredInError = "entered-in-error"
)

// EncounterClass codes per FHIR R4 v3-ActCode.
const (
	EncounterClassAmbulatory = "AMB"
	EncounterClassEmergency  = "EMER"
	EncounterClassInpatient  = "IMP"
	EncounterClassShortStay  = "SS"
	EncounterClassVirtual    = "VR"
	EncounterClassHomeHealth = "HH"
)

// AppointmentStatus values per FHIR R4.
const (
	AppointmentProposed       = "proposed"
	AppointmentPending        = "pending"
	AppointmentBooked         = "booked"
	AppointmentArrived        = "arrived"
	AppointmentFulfilled      = "fulfilled"
	AppointmentCancelled      = "cancelled"
	AppointmentNoShow         = "noshow"
	AppointmentEnteredInError = "entered-in-error"
	AppointmentCheckedIn      = "checked-in"
	AppointmentWaitlist       = "waitlist"
)

// MedicationRequestStatus values per FHIR R4.
const (
	MedicationRequestActive         = "active"
	MedicationRequestOnHold         = "on-hold"
	MedicationRequestCancelled      = "cancelled"
	MedicationRequestCompleted      = "completed"
	MedicationRequestEnteredInError = "entered-in-error"
	MedicationRequestStopped        = "stopped"
	MedicationRequestDraft          = "draft"
	MedicationRequestUnknown        = "unknown"
)

// ProcedureStatus values per FHIR R4.
const (
	ProcedurePreparation    = "preparation"
	ProcedureInProgress     = "in-progress"
	ProcedureNotDone        = "not-done"
	ProcedureOnHold         = "on-hold"
	ProcedureStopped        = "stopped"
	ProcedureCompleted      = "completed"
	ProcedureEnteredInError = "entered-in-error"
	ProcedureUnknown        = "unknown"
)

// ImmunizationStatus values per FHIR R4.
const (
	ImmunizationCompleted      = "completed"
	ImmunizationEnteredInError = "entered-in-error"
	ImmunizationNotDone        = "not-done"
)
