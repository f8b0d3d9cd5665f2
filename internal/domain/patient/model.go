package patient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

const ResourceType = "Patient"

// mrnSystem is the identifier system for server-assigned medical record
// numbers stamped onto every created patient.
const mrnSystem = "http://hospital.example.org/mrn"

// Patient is the FHIR Patient resource as this server stores it. The whole
// struct round-trips through JSON into the revision store; only a few fields
// are additionally denormalized for search.
type Patient struct {
	ResourceType  string                `json:"resourceType"`
	ID            string                `json:"id,omitempty"`
	Meta          *fhir.Meta            `json:"meta,omitempty"`
	Identifier    []fhir.Identifier     `json:"identifier,omitempty"`
	Active        *bool                 `json:"active,omitempty"`
	Name          []fhir.HumanName      `json:"name,omitempty"`
	Telecom       []fhir.ContactPoint   `json:"telecom,omitempty"`
	Gender        string                `json:"gender,omitempty"`
	BirthDate     string                `json:"birthDate,omitempty"`
	Address       []fhir.Address        `json:"address,omitempty"`
	MaritalStatus *fhir.CodeableConcept `json:"maritalStatus,omitempty"`
}

// FamilyName returns the family component of the first name entry.
func (p *Patient) FamilyName() string {
	if len(p.Name) == 0 {
		return ""
	}
	return p.Name[0].Family
}

// Clone deep-copies the patient through its JSON form.
func (p *Patient) Clone() *Patient {
	data, err := json.Marshal(p)
	if err != nil {
		// Patient contains only marshalable fields.
		panic(fmt.Sprintf("clone patient: %v", err))
	}
	var out Patient
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("clone patient: %v", err))
	}
	return &out
}

// stampIdentity sets the server-assigned id and meta on the resource.
func (p *Patient) stampIdentity(logicalID int64, versionID int, lastUpdated time.Time) {
	p.ResourceType = ResourceType
	p.ID = strconv.FormatInt(logicalID, 10)
	p.Meta = &fhir.Meta{
		VersionID:   strconv.Itoa(versionID),
		LastUpdated: lastUpdated.UTC(),
	}
}

// toMap renders the patient as a generic map for the spec validator.
func (p *Patient) toMap() (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode patient map: %w", err)
	}
	return m, nil
}

// Revision maps to one row of the patient_revision table: an immutable
// snapshot of a patient at a version. The surrogate key never leaves this
// package; callers address revisions by (logical id, version id).
type Revision struct {
	ID          uuid.UUID       `db:"id"`
	LogicalID   int64           `db:"logical_id"`
	VersionID   int             `db:"version_id"`
	Resource    json.RawMessage `db:"resource"`
	NameFamily  *string         `db:"name_family"`
	Gender      *string         `db:"gender"`
	LastUpdated time.Time       `db:"last_updated"`
}

// newRevision encodes p into an immutable revision row, extracting the
// denormalized search fields at write time.
func newRevision(logicalID int64, versionID int, p *Patient, fields map[string]string, lastUpdated time.Time) (*Revision, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patient revision: %w", err)
	}
	rev := &Revision{
		ID:          uuid.New(),
		LogicalID:   logicalID,
		VersionID:   versionID,
		Resource:    data,
		LastUpdated: lastUpdated.UTC(),
	}
	if family := fields["family"]; family != "" {
		rev.NameFamily = &family
	}
	if gender := fields["gender"]; gender != "" {
		rev.Gender = &gender
	}
	return rev, nil
}

// Decode parses the stored payload and stamps the revision's identity onto
// the result.
func (r *Revision) Decode() (*Patient, error) {
	var p Patient
	if err := json.Unmarshal(r.Resource, &p); err != nil {
		return nil, fmt.Errorf("decode revision %d/%d: %w", r.LogicalID, r.VersionID, err)
	}
	p.stampIdentity(r.LogicalID, r.VersionID, r.LastUpdated)
	return &p, nil
}
