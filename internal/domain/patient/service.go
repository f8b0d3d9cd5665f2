package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

// defaultUpdateAttempts bounds the fetch-merge-insert cycle under version
// conflicts before the conflict is surfaced to the caller.
const defaultUpdateAttempts = 3

// Service is the Patient resource provider. Each operation is a single
// request/response cycle; all durable state lives behind RevisionRepository.
type Service struct {
	repo RevisionRepository
	ids  IDAllocator
	kind fhir.Kind[*Patient]
	log  zerolog.Logger

	updateAttempts int
	now            func() time.Time
}

func NewService(repo RevisionRepository, ids IDAllocator, kind fhir.Kind[*Patient], log zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		ids:            ids,
		kind:           kind,
		log:            log,
		updateAttempts: defaultUpdateAttempts,
		now:            time.Now,
	}
}

// SetUpdateAttempts overrides the bounded retry count for update conflicts.
// Values below 1 are clamped to 1.
func (s *Service) SetUpdateAttempts(n int) {
	if n < 1 {
		n = 1
	}
	s.updateAttempts = n
}

// Outcome describes the result of a write operation.
type Outcome struct {
	LogicalID int64
	VersionID int
	Created   bool
	Resource  *Patient
}

// SearchFilters is the conjunction of supported search predicates. Zero
// values mean "no constraint".
type SearchFilters struct {
	Family string // case-insensitive equality against any name's family
	Gender string // case-insensitive exact match
}

// Create validates the incoming record, allocates a logical id, stamps a
// server-assigned MRN identifier, and commits revision 1. Validation runs
// before allocation so rejected input never burns an id.
func (s *Service) Create(ctx context.Context, p *Patient) (*Outcome, error) {
	if p == nil {
		return nil, &fhir.BadRequestError{Msg: "missing Patient resource in request body"}
	}
	now := s.now()

	if issues := s.kind.Validate(p, now); len(issues) > 0 {
		return nil, &fhir.UnprocessableEntityError{Issues: issues}
	}

	logicalID, err := s.ids.NextLogicalID(ctx)
	if err != nil {
		return nil, err
	}

	stored := p.Clone()
	stored.Identifier = append(stored.Identifier, fhir.Identifier{
		System: mrnSystem,
		Value:  "MRN" + uuid.NewString(),
	})
	stored.stampIdentity(logicalID, 1, now)

	rev, err := newRevision(logicalID, 1, stored, s.kind.SearchFields(stored), now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, rev); err != nil {
		return nil, fmt.Errorf("create Patient/%d: %w", logicalID, err)
	}

	s.log.Info().Int64("logical_id", logicalID).Msg("patient created")
	return &Outcome{LogicalID: logicalID, VersionID: 1, Created: true, Resource: stored}, nil
}

// Read resolves a patient by logical id, at the given version when rawVersion
// is non-empty, otherwise at the latest version.
func (s *Service) Read(ctx context.Context, rawID, rawVersion string) (*Patient, error) {
	logicalID, err := parseLogicalID(rawID)
	if err != nil {
		return nil, err
	}

	var rev *Revision
	if rawVersion != "" {
		versionID, err := parseVersionID(rawVersion)
		if err != nil {
			return nil, err
		}
		rev, err = s.repo.FindByVersion(ctx, logicalID, versionID)
		if err != nil {
			return nil, err
		}
	} else {
		rev, err = s.repo.FindLatest(ctx, logicalID)
		if err != nil {
			return nil, err
		}
	}

	return rev.Decode()
}

// Update merges the incoming partial record onto the latest revision,
// validates the merged result, and commits it at the next version number.
// A duplicate-version conflict restarts the fetch-merge-insert cycle up to
// the configured bound; the last conflict is surfaced to the caller.
func (s *Service) Update(ctx context.Context, rawID string, incoming *Patient) (*Outcome, error) {
	logicalID, err := parseLogicalID(rawID)
	if err != nil {
		return nil, err
	}
	if incoming == nil || incoming.ID == "" {
		return nil, &fhir.BadRequestError{Msg: "missing resource id in body"}
	}
	if incoming.ID != rawID {
		return nil, &fhir.BadRequestError{
			Msg: fmt.Sprintf("mismatched ids: URL has %s but body has %s", rawID, incoming.ID),
		}
	}

	for attempt := 1; ; attempt++ {
		latest, err := s.repo.FindLatest(ctx, logicalID)
		if err != nil {
			return nil, err
		}
		existing, err := latest.Decode()
		if err != nil {
			return nil, err
		}

		merged := s.kind.Merge(existing, incoming)
		now := s.now()
		if issues := s.kind.Validate(merged, now); len(issues) > 0 {
			return nil, &fhir.UnprocessableEntityError{Issues: issues}
		}

		nextVersion := latest.VersionID + 1
		merged.stampIdentity(logicalID, nextVersion, now)
		rev, err := newRevision(logicalID, nextVersion, merged, s.kind.SearchFields(merged), now)
		if err != nil {
			return nil, err
		}

		err = s.repo.Insert(ctx, rev)
		if err == nil {
			s.log.Info().Int64("logical_id", logicalID).Int("version_id", nextVersion).Msg("patient updated")
			return &Outcome{LogicalID: logicalID, VersionID: nextVersion, Resource: merged}, nil
		}

		var conflict *fhir.ConflictError
		if errors.As(err, &conflict) && attempt < s.updateAttempts {
			s.log.Debug().Int64("logical_id", logicalID).Int("attempt", attempt).Msg("update lost version race, retrying")
			continue
		}
		return nil, err
	}
}

// History returns every revision of the patient, newest first.
func (s *Service) History(ctx context.Context, rawID string) ([]*Patient, error) {
	logicalID, err := parseLogicalID(rawID)
	if err != nil {
		return nil, err
	}

	revs, err := s.repo.ListAll(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, &fhir.NotFoundError{ResourceType: ResourceType, LogicalID: rawID}
	}

	patients := make([]*Patient, len(revs))
	for i, rev := range revs {
		p, err := rev.Decode()
		if err != nil {
			return nil, err
		}
		patients[i] = p
	}
	return patients, nil
}

// Search matches the latest revision of every patient against the filter
// conjunction and returns the matches with the total count.
func (s *Service) Search(ctx context.Context, filters SearchFilters) ([]*Patient, int, error) {
	revs, err := s.repo.ListLatest(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matches []*Patient
	for _, rev := range revs {
		p, err := rev.Decode()
		if err != nil {
			return nil, 0, err
		}
		if matchesFilters(p, filters) {
			matches = append(matches, p)
		}
	}
	return matches, len(matches), nil
}

func matchesFilters(p *Patient, filters SearchFilters) bool {
	if filters.Family != "" {
		found := false
		for _, name := range p.Name {
			if strings.EqualFold(name.Family, filters.Family) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.Gender != "" && !strings.EqualFold(p.Gender, filters.Gender) {
		return false
	}
	return true
}

func parseLogicalID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &fhir.BadRequestError{Msg: fmt.Sprintf("Patient id must be a positive integer, got %q", raw)}
	}
	return id, nil
}

func parseVersionID(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, &fhir.BadRequestError{Msg: fmt.Sprintf("version id must be a positive integer, got %q", raw)}
	}
	return v, nil
}
