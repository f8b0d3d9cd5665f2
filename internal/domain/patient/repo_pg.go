package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrec/clinrec/internal/platform/fhir"
)

// pgUniqueViolation is the SQLSTATE for a unique-constraint violation.
const pgUniqueViolation = "23505"

type revisionRepoPG struct{ pool *pgxpool.Pool }

// NewRevisionRepoPG returns the Postgres-backed revision store. The returned
// value also implements IDAllocator via the patient_logical_id_seq sequence.
func NewRevisionRepoPG(pool *pgxpool.Pool) *revisionRepoPG {
	return &revisionRepoPG{pool: pool}
}

const revisionCols = `id, logical_id, version_id, resource, name_family, gender, last_updated`

func scanRevision(row pgx.Row) (*Revision, error) {
	var rev Revision
	err := row.Scan(&rev.ID, &rev.LogicalID, &rev.VersionID, &rev.Resource,
		&rev.NameFamily, &rev.Gender, &rev.LastUpdated)
	return &rev, err
}

func (r *revisionRepoPG) NextLogicalID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('patient_logical_id_seq')`).Scan(&id)
	if err != nil {
		return 0, &fhir.AllocationError{Err: err}
	}
	return id, nil
}

func (r *revisionRepoPG) Insert(ctx context.Context, rev *Revision) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient_revision (id, logical_id, version_id, resource, name_family, gender, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rev.ID, rev.LogicalID, rev.VersionID, rev.Resource, rev.NameFamily, rev.Gender, rev.LastUpdated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &fhir.ConflictError{
				ResourceType: ResourceType,
				LogicalID:    rev.LogicalID,
				VersionID:    rev.VersionID,
			}
		}
		return fmt.Errorf("insert patient revision: %w", err)
	}
	return nil
}

func (r *revisionRepoPG) FindLatest(ctx context.Context, logicalID int64) (*Revision, error) {
	rev, err := scanRevision(r.pool.QueryRow(ctx, `
		SELECT `+revisionCols+` FROM patient_revision
		WHERE logical_id = $1
		ORDER BY version_id DESC
		LIMIT 1`, logicalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &fhir.NotFoundError{ResourceType: ResourceType, LogicalID: strconv.FormatInt(logicalID, 10)}
		}
		return nil, fmt.Errorf("find latest revision: %w", err)
	}
	return rev, nil
}

func (r *revisionRepoPG) FindByVersion(ctx context.Context, logicalID int64, versionID int) (*Revision, error) {
	rev, err := scanRevision(r.pool.QueryRow(ctx, `
		SELECT `+revisionCols+` FROM patient_revision
		WHERE logical_id = $1 AND version_id = $2`, logicalID, versionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &fhir.NotFoundError{
				ResourceType: ResourceType,
				LogicalID:    strconv.FormatInt(logicalID, 10),
				VersionID:    versionID,
			}
		}
		return nil, fmt.Errorf("find revision by version: %w", err)
	}
	return rev, nil
}

func (r *revisionRepoPG) ListAll(ctx context.Context, logicalID int64) ([]*Revision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+revisionCols+` FROM patient_revision
		WHERE logical_id = $1
		ORDER BY version_id DESC`, logicalID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

func (r *revisionRepoPG) ListLatest(ctx context.Context) ([]*Revision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (logical_id) `+revisionCols+` FROM patient_revision
		ORDER BY logical_id, version_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list latest revisions: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

func collectRevisions(rows pgx.Rows) ([]*Revision, error) {
	var revs []*Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read revisions: %w", err)
	}
	return revs, nil
}
