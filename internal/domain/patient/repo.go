package patient

import (
	"context"
)

// IDAllocator issues unique, monotonically increasing logical ids. The
// allocator holds no state of its own; it exposes the storage layer's atomic
// next-value primitive.
type IDAllocator interface {
	NextLogicalID(ctx context.Context) (int64, error)
}

// RevisionRepository is the append-only store of patient revisions.
//
// Insert must fail with *fhir.ConflictError when a row for the revision's
// (logical id, version id) already exists; that uniqueness check is the sole
// serialization point for concurrent updaters. The caller supplies the
// version id (exactly latest+1), the store never computes it.
type RevisionRepository interface {
	Insert(ctx context.Context, rev *Revision) error

	// FindLatest returns the revision with the highest version id for the
	// logical id, or *fhir.NotFoundError.
	FindLatest(ctx context.Context, logicalID int64) (*Revision, error)

	// FindByVersion returns one exact revision, or *fhir.NotFoundError.
	FindByVersion(ctx context.Context, logicalID int64, versionID int) (*Revision, error)

	// ListAll returns every revision of the logical id, version descending.
	ListAll(ctx context.Context, logicalID int64) ([]*Revision, error)

	// ListLatest returns the latest revision of every logical id, one entry
	// per patient, ordered by logical id.
	ListLatest(ctx context.Context) ([]*Revision, error)
}
