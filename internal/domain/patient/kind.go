package patient

import (
	"fmt"
	"time"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

// Kind implements fhir.Kind for the Patient resource: spec-conformance
// validation through the configured SpecValidator, business rules, search
// field extraction, and the allow-listed merge.
type Kind struct {
	spec         fhir.SpecValidator
	failSeverity string
}

// NewKind builds the Patient capability set. Spec-validator issues at or
// above failSeverity reject the record.
func NewKind(spec fhir.SpecValidator, failSeverity string) *Kind {
	return &Kind{spec: spec, failSeverity: failSeverity}
}

// Validate runs both validation passes and returns every violated rule.
func (k *Kind) Validate(p *Patient, now time.Time) []fhir.OperationOutcomeIssue {
	var issues []fhir.OperationOutcomeIssue

	m, err := p.toMap()
	if err != nil {
		return []fhir.OperationOutcomeIssue{{
			Severity:    fhir.IssueSeverityError,
			Code:        fhir.IssueTypeStructure,
			Diagnostics: err.Error(),
		}}
	}
	issues = append(issues, fhir.FailingIssues(k.spec.Validate(m), k.failSeverity)...)

	if p.FamilyName() == "" {
		issues = append(issues, fhir.OperationOutcomeIssue{
			Severity:    fhir.IssueSeverityError,
			Code:        fhir.IssueTypeRequired,
			Diagnostics: "Patient must have a family name",
			Expression:  []string{"Patient.name.family"},
		})
	}
	if p.Gender == "" {
		issues = append(issues, fhir.OperationOutcomeIssue{
			Severity:    fhir.IssueSeverityError,
			Code:        fhir.IssueTypeRequired,
			Diagnostics: "Patient must have a gender",
			Expression:  []string{"Patient.gender"},
		})
	}
	if p.BirthDate != "" {
		if bd, err := time.Parse("2006-01-02", p.BirthDate); err == nil && bd.After(now) {
			issues = append(issues, fhir.OperationOutcomeIssue{
				Severity:    fhir.IssueSeverityError,
				Code:        fhir.IssueTypeBusinessRule,
				Diagnostics: fmt.Sprintf("Patient birthDate %s cannot be in the future", p.BirthDate),
				Expression:  []string{"Patient.birthDate"},
			})
		}
	}

	return issues
}

// SearchFields returns the fields denormalized into the revision row.
func (k *Kind) SearchFields(p *Patient) map[string]string {
	return map[string]string{
		"family": p.FamilyName(),
		"gender": p.Gender,
	}
}

// Merge applies the allow-listed overlay.
func (k *Kind) Merge(existing, incoming *Patient) *Patient {
	return Merge(existing, incoming)
}
