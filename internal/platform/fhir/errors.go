package fhir

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// BadRequestError signals a malformed request: an unparseable logical id,
// or a mismatch between the addressed id and the id in the request body.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

// NotFoundError signals that no revision exists for the requested logical
// id, or for the requested (logical id, version) pair.
type NotFoundError struct {
	ResourceType string
	LogicalID    string
	VersionID    int
}

func (e *NotFoundError) Error() string {
	if e.VersionID > 0 {
		return fmt.Sprintf("%s/%s/_history/%d not found", e.ResourceType, e.LogicalID, e.VersionID)
	}
	return fmt.Sprintf("%s/%s not found", e.ResourceType, e.LogicalID)
}

// UnprocessableEntityError carries the full list of validation issues that
// caused a write to be rejected.
type UnprocessableEntityError struct {
	Issues []OperationOutcomeIssue
}

func (e *UnprocessableEntityError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		msgs = append(msgs, i.Diagnostics)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ConflictError signals that the version slot the writer targeted was taken
// by a concurrent update. The caller should re-fetch the latest revision and
// retry.
type ConflictError struct {
	ResourceType string
	LogicalID    int64
	VersionID    int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s/%d was modified concurrently (version %d already written); re-fetch the latest version and retry",
		e.ResourceType, e.LogicalID, e.VersionID)
}

// AllocationError signals that the logical-id counter was unreachable.
// Fatal to the enclosing create.
type AllocationError struct {
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate logical id: %v", e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// StatusFor maps a provider error to the HTTP status the FHIR REST layer
// should return. Unrecognized errors map to 500.
func StatusFor(err error) int {
	var (
		badReq   *BadRequestError
		notFound *NotFoundError
		unproc   *UnprocessableEntityError
		conflict *ConflictError
		alloc    *AllocationError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unproc):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &alloc):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// OutcomeFor renders a provider error as an OperationOutcome. Validation
// errors keep every issue; other errors become a single issue.
func OutcomeFor(err error) *OperationOutcome {
	var (
		notFound *NotFoundError
		unproc   *UnprocessableEntityError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &unproc):
		return &OperationOutcome{ResourceType: "OperationOutcome", Issue: unproc.Issues}
	case errors.As(err, &notFound):
		return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, notFound.Error())
	case errors.As(err, &conflict):
		return NewOperationOutcome(IssueSeverityError, IssueTypeConflict, conflict.Error())
	case StatusFor(err) == http.StatusBadRequest:
		return NewOperationOutcome(IssueSeverityError, IssueTypeInvalid, err.Error())
	default:
		return NewOperationOutcome(IssueSeverityError, IssueTypeException, err.Error())
	}
}
