package fhir

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&BadRequestError{Msg: "bad id"}, http.StatusBadRequest},
		{&NotFoundError{ResourceType: "Patient", LogicalID: "1"}, http.StatusNotFound},
		{&UnprocessableEntityError{}, http.StatusUnprocessableEntity},
		{&ConflictError{ResourceType: "Patient", LogicalID: 1, VersionID: 2}, http.StatusConflict},
		{&AllocationError{Err: errors.New("down")}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%T) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatusFor_WrappedError(t *testing.T) {
	err := fmt.Errorf("create Patient/1: %w",
		&ConflictError{ResourceType: "Patient", LogicalID: 1, VersionID: 2})
	if got := StatusFor(err); got != http.StatusConflict {
		t.Errorf("wrapped conflict should map to 409, got %d", got)
	}
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{ResourceType: "Patient", LogicalID: "5"}
	if err.Error() != "Patient/5 not found" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = &NotFoundError{ResourceType: "Patient", LogicalID: "5", VersionID: 2}
	if err.Error() != "Patient/5/_history/2 not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConflictError_AdvisesRetry(t *testing.T) {
	err := &ConflictError{ResourceType: "Patient", LogicalID: 5, VersionID: 3}
	if !strings.Contains(err.Error(), "retry") {
		t.Errorf("conflict message should advise retry, got %q", err.Error())
	}
}

func TestOutcomeFor_KeepsEveryValidationIssue(t *testing.T) {
	err := &UnprocessableEntityError{Issues: []OperationOutcomeIssue{
		{Severity: IssueSeverityError, Code: IssueTypeRequired, Diagnostics: "no family name"},
		{Severity: IssueSeverityError, Code: IssueTypeRequired, Diagnostics: "no gender"},
	}}
	outcome := OutcomeFor(err)
	if len(outcome.Issue) != 2 {
		t.Errorf("expected both issues preserved, got %d", len(outcome.Issue))
	}
}

func TestOutcomeFor_NotFoundCode(t *testing.T) {
	outcome := OutcomeFor(&NotFoundError{ResourceType: "Patient", LogicalID: "9"})
	if outcome.Issue[0].Code != IssueTypeNotFound {
		t.Errorf("expected not-found code, got %s", outcome.Issue[0].Code)
	}
	if !strings.Contains(outcome.Issue[0].Diagnostics, "Patient/9") {
		t.Error("outcome should identify what was looked up")
	}
}

func TestAllocationError_Unwrap(t *testing.T) {
	inner := errors.New("sequence unavailable")
	err := &AllocationError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("AllocationError must unwrap to its cause")
	}
}
