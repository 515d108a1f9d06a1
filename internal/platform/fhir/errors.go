package fhir

import "fmt"

// Error taxonomy for upstream FHIR responses. Exactly one attempt is made
// per request; callers receive the mapped error and decide what to surface.
// 401 maps to auth.AuthenticationError, produced by the client.

// NotFoundError reports a 404 for a resource read or search target.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s/%s not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ClientError reports a 4xx other than 401/404. The request was understood
// to be at fault; retrying without change would fail identically.
type ClientError struct {
	Status int
	Detail string
}

func (e *ClientError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("fhir request rejected (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("fhir request rejected (status %d)", e.Status)
}

// ServerError reports a 5xx from the FHIR server.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("fhir server error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("fhir server error (status %d)", e.Status)
}

// TimeoutError reports that the FHIR call exceeded its deadline.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fhir %s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
