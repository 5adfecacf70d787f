package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/ports"
)

const abstractsTable = "abstracts"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	submissionColumns = []string{
		"id", "title", "abstract", "category", "presentation_type", "status",
		"reviewer_comments", "is_featured", "authors", "submitted_at", "last_updated",
	}

	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

// querier is the part of *pgxpool.Pool the store needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists submissions in Postgres. Every mutation is one atomic
// UPDATE ... RETURNING, so concurrent writes to a row serialize on the row lock.
type PostgresStore struct {
	db querier
}

var _ ports.SubmissionStore = (*PostgresStore)(nil)

// NewPostgresStore wires a pgx pool (or any compatible querier).
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get reads one submission by id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (domain.Submission, error) {
	query, args, err := psql.Select(submissionColumns...).
		From(abstractsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("build query: %w", err)
	}
	return s.queryOne(ctx, id, query, args)
}

// List reads submissions matching filter, newest first.
func (s *PostgresStore) List(ctx context.Context, filter domain.Filter) ([]domain.Submission, error) {
	query, args, err := listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateStatus persists a new status.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status domain.Status, at time.Time) (domain.Submission, error) {
	return s.update(ctx, id, updateQuery(id, at).Set("status", string(status)))
}

// UpdateComments persists reviewer comments.
func (s *PostgresStore) UpdateComments(ctx context.Context, id int64, comments string, at time.Time) (domain.Submission, error) {
	return s.update(ctx, id, updateQuery(id, at).Set("reviewer_comments", comments))
}

// ToggleFeatured flips is_featured in place.
func (s *PostgresStore) ToggleFeatured(ctx context.Context, id int64, at time.Time) (domain.Submission, error) {
	return s.update(ctx, id, updateQuery(id, at).Set("is_featured", sq.Expr("NOT is_featured")))
}

func (s *PostgresStore) update(ctx context.Context, id int64, b sq.UpdateBuilder) (domain.Submission, error) {
	query, args, err := b.Suffix("RETURNING " + strings.Join(submissionColumns, ", ")).ToSql()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("build query: %w", err)
	}
	return s.queryOne(ctx, id, query, args)
}

func (s *PostgresStore) queryOne(ctx context.Context, id int64, query string, args []any) (domain.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, &domain.NotFoundError{ID: id}
	}
	return sub, err
}

func updateQuery(id int64, at time.Time) sq.UpdateBuilder {
	return psql.Update(abstractsTable).
		Set("last_updated", at.UTC()).
		Where(sq.Eq{"id": id})
}

func listQuery(f domain.Filter) (string, []any, error) {
	q := psql.Select(submissionColumns...).From(abstractsTable)
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.PresentationType != "" {
		q = q.Where(sq.Eq{"presentation_type": f.PresentationType})
	}
	if f.Featured != nil {
		q = q.Where(sq.Eq{"is_featured": *f.Featured})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"abstract": pattern}})
	}
	return q.OrderBy("submitted_at DESC", "id DESC").ToSql()
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var (
		sub         domain.Submission
		status      string
		authors     []byte
		lastUpdated *time.Time
	)
	err := row.Scan(
		&sub.ID, &sub.Title, &sub.Abstract, &sub.Category, &sub.PresentationType, &status,
		&sub.ReviewerComments, &sub.IsFeatured, &authors, &sub.SubmittedAt, &lastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, err
		}
		return domain.Submission{}, fmt.Errorf("scan submission: %w", err)
	}

	sub.Status, err = domain.ParseStatus(status)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submission %d: %w", sub.ID, err)
	}
	if len(authors) > 0 {
		var list []domain.Author
		if err := json.Unmarshal(authors, &list); err != nil {
			return domain.Submission{}, fmt.Errorf("submission %d authors: %w", sub.ID, err)
		}
		sub.SetAuthors(list)
	}
	if lastUpdated != nil {
		sub.LastUpdated = lastUpdated.UTC()
	}
	return sub, nil
}
