package patient

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

func TestPatient_JSONRoundTrip(t *testing.T) {
	active := true
	p := &Patient{
		ResourceType: ResourceType,
		Identifier:   []fhir.Identifier{{System: mrnSystem, Value: "MRN-1"}},
		Active:       &active,
		Name:         []fhir.HumanName{{Family: "Smith", Given: []string{"Jane", "Q"}}},
		Telecom:      []fhir.ContactPoint{{System: "email", Value: "jane@example.org"}},
		Gender:       "female",
		BirthDate:    "1980-04-12",
		Address:      []fhir.Address{{Line: []string{"1 Main St"}, City: "Springfield"}},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Patient
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(p, &back) {
		t.Errorf("round trip changed the patient:\n before %+v\n after  %+v", p, &back)
	}
}

func TestNewRevision_ExtractsSearchFields(t *testing.T) {
	p := &Patient{
		ResourceType: ResourceType,
		Name:         []fhir.HumanName{{Family: "Smith"}},
		Gender:       "female",
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rev, err := newRevision(7, 1, p, map[string]string{"family": "Smith", "gender": "female"}, now)
	if err != nil {
		t.Fatalf("newRevision: %v", err)
	}
	if rev.LogicalID != 7 || rev.VersionID != 1 {
		t.Errorf("unexpected identity %d/%d", rev.LogicalID, rev.VersionID)
	}
	if rev.NameFamily == nil || *rev.NameFamily != "Smith" {
		t.Error("expected name_family Smith")
	}
	if rev.Gender == nil || *rev.Gender != "female" {
		t.Error("expected gender female")
	}
	if !rev.LastUpdated.Equal(now) {
		t.Errorf("expected lastUpdated %v, got %v", now, rev.LastUpdated)
	}
}

func TestNewRevision_EmptyFieldsStayNull(t *testing.T) {
	p := &Patient{ResourceType: ResourceType}
	rev, err := newRevision(1, 1, p, map[string]string{}, time.Now())
	if err != nil {
		t.Fatalf("newRevision: %v", err)
	}
	if rev.NameFamily != nil || rev.Gender != nil {
		t.Error("absent searchable fields must stay null, not empty strings")
	}
}

func TestRevision_DecodeStampsIdentity(t *testing.T) {
	p := &Patient{
		ResourceType: ResourceType,
		Name:         []fhir.HumanName{{Family: "Smith"}},
		Gender:       "female",
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rev, err := newRevision(7, 3, p, map[string]string{}, now)
	if err != nil {
		t.Fatalf("newRevision: %v", err)
	}

	decoded, err := rev.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "7" {
		t.Errorf("expected id 7, got %s", decoded.ID)
	}
	if decoded.Meta == nil || decoded.Meta.VersionID != "3" {
		t.Error("expected meta.versionId 3")
	}
	if !decoded.Meta.LastUpdated.Equal(now) {
		t.Errorf("expected lastUpdated %v, got %v", now, decoded.Meta.LastUpdated)
	}
	if decoded.FamilyName() != "Smith" {
		t.Errorf("content lost in decode, family %s", decoded.FamilyName())
	}
}

func TestRevision_DecodeRejectsCorruptPayload(t *testing.T) {
	rev := &Revision{LogicalID: 1, VersionID: 1, Resource: json.RawMessage(`{`)}
	if _, err := rev.Decode(); err == nil {
		t.Error("expected error for corrupt payload")
	}
}

func TestClone_Independent(t *testing.T) {
	p := &Patient{
		ResourceType: ResourceType,
		Name:         []fhir.HumanName{{Family: "Smith"}},
	}
	c := p.Clone()
	c.Name[0].Family = "Jones"
	if p.FamilyName() != "Smith" {
		t.Error("clone shares state with the original")
	}
}
