package fhir

import (
	"fmt"
	"time"
)

// genderValues lists the administrative-gender codes accepted by this server.
var genderValues = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

// SpecValidator checks a resource against its declared specification and
// returns every issue found, at any severity. Callers decide which
// severities fail the record.
type SpecValidator interface {
	Validate(resource map[string]interface{}) []OperationOutcomeIssue
}

// Validator is the built-in SpecValidator. It performs structural checks on
// a resource rendered as a generic map: resourceType presence, gender code
// membership, date syntax, and identifier shape.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(resource map[string]interface{}) []OperationOutcomeIssue {
	var issues []OperationOutcomeIssue

	rt, ok := resource["resourceType"].(string)
	if !ok || rt == "" {
		issues = append(issues, OperationOutcomeIssue{
			Severity:    IssueSeverityError,
			Code:        IssueTypeStructure,
			Diagnostics: "resource has no resourceType",
		})
	}

	if g, ok := resource["gender"]; ok {
		gs, isStr := g.(string)
		if !isStr || !genderValues[gs] {
			issues = append(issues, OperationOutcomeIssue{
				Severity:    IssueSeverityError,
				Code:        IssueTypeValue,
				Diagnostics: fmt.Sprintf("gender must be one of male|female|other|unknown, got %v", g),
				Expression:  []string{"gender"},
			})
		}
	}

	if bd, ok := resource["birthDate"]; ok {
		bds, isStr := bd.(string)
		if !isStr {
			issues = append(issues, OperationOutcomeIssue{
				Severity:    IssueSeverityError,
				Code:        IssueTypeValue,
				Diagnostics: "birthDate must be a string in YYYY-MM-DD form",
				Expression:  []string{"birthDate"},
			})
		} else if _, err := time.Parse("2006-01-02", bds); err != nil {
			issues = append(issues, OperationOutcomeIssue{
				Severity:    IssueSeverityError,
				Code:        IssueTypeValue,
				Diagnostics: fmt.Sprintf("birthDate %q is not a valid YYYY-MM-DD date", bds),
				Expression:  []string{"birthDate"},
			})
		}
	}

	if ids, ok := resource["identifier"].([]interface{}); ok {
		for i, raw := range ids {
			entry, isMap := raw.(map[string]interface{})
			if !isMap {
				issues = append(issues, OperationOutcomeIssue{
					Severity:    IssueSeverityError,
					Code:        IssueTypeStructure,
					Diagnostics: fmt.Sprintf("identifier[%d] is not an object", i),
					Expression:  []string{fmt.Sprintf("identifier[%d]", i)},
				})
				continue
			}
			if val, _ := entry["value"].(string); val == "" {
				issues = append(issues, OperationOutcomeIssue{
					Severity:    IssueSeverityWarning,
					Code:        IssueTypeRequired,
					Diagnostics: fmt.Sprintf("identifier[%d] has no value", i),
					Expression:  []string{fmt.Sprintf("identifier[%d].value", i)},
				})
			}
		}
	}

	return issues
}

// FailingIssues filters issues to those at or above the given severity
// threshold.
func FailingIssues(issues []OperationOutcomeIssue, threshold string) []OperationOutcomeIssue {
	var failing []OperationOutcomeIssue
	for _, issue := range issues {
		if SeverityAtLeast(issue.Severity, threshold) {
			failing = append(failing, issue)
		}
	}
	return failing
}
