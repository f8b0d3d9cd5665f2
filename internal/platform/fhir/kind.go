package fhir

import "time"

// Kind describes the per-resource-type capabilities the resource provider
// needs: content validation, search-field extraction, and merging a partial
// update onto an existing resource. Implementing Kind for a new resource
// type is all a provider needs to version it.
type Kind[R any] interface {
	// Validate returns the issues that make r unacceptable for storage.
	// An empty result means r may be committed. now anchors time-relative
	// rules such as future-dated birth dates.
	Validate(r R, now time.Time) []OperationOutcomeIssue

	// SearchFields extracts the denormalized searchable fields persisted
	// alongside the encoded resource.
	SearchFields(r R) map[string]string

	// Merge overlays incoming onto existing and returns the merged
	// resource. It must not mutate either argument.
	Merge(existing, incoming R) R
}
