package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gatherings/internal/domain"
)

const gatheringColumns = `id, title, description, creator_id, hosts, canceled, acceptors, posts, created_at, updated_at`

type gatheringRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	CreatorID   string         `db:"creator_id"`
	Hosts       pq.StringArray `db:"hosts"`
	Canceled    bool           `db:"canceled"`
	Acceptors   pq.StringArray `db:"acceptors"`
	Posts       pq.StringArray `db:"posts"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r gatheringRow) toDomain() *domain.Gathering {
	return &domain.Gathering{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatorID:   r.CreatorID,
		Hosts:       domain.WithMembers(nil, r.Hosts...),
		Canceled:    r.Canceled,
		Acceptors:   domain.WithMembers(nil, r.Acceptors...),
		Posts:       domain.WithMembers(nil, r.Posts...),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// setColumns maps member-set fields to their array columns.
var setColumns = map[domain.GatheringField]string{
	domain.FieldHosts:     "hosts",
	domain.FieldAcceptors: "acceptors",
	domain.FieldPosts:     "posts",
}

type gatheringRepository struct {
	DB *sqlx.DB
}

func NewGatheringRepository(db *sqlx.DB) domain.GatheringRepository {
	return &gatheringRepository{
		DB: db,
	}
}

func (r *gatheringRepository) Create(ctx context.Context, g *domain.Gathering) error {
	query := `
		INSERT INTO gatherings (title, description, creator_id, hosts, acceptors, posts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	hosts := domain.WithMembers([]string{g.CreatorID}, g.Hosts...)
	acceptors := domain.WithMembers(nil, g.Acceptors...)
	posts := domain.WithMembers(nil, g.Posts...)
	err := r.DB.QueryRowContext(ctx, query, g.Title, g.Description, g.CreatorID, pq.Array(hosts), pq.Array(acceptors), pq.Array(posts)).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return &domain.Error{Code: domain.CodeNameConflict, UserID: g.CreatorID, Title: g.Title}
		}
		return err
	}
	g.Hosts = hosts
	g.Acceptors = acceptors
	g.Posts = posts
	return nil
}

func (r *gatheringRepository) GetByID(ctx context.Context, id string) (*domain.Gathering, error) {
	query := `SELECT ` + gatheringColumns + ` FROM gatherings WHERE id = $1`
	var row gatheringRow
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == invalidTextRepresentation {
			return nil, domain.GatheringNotFound(id)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *gatheringRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Gathering, error) {
	return r.Query(ctx, domain.GatheringQuery{CreatorID: creatorID})
}

func (r *gatheringRepository) Query(ctx context.Context, q domain.GatheringQuery) ([]*domain.Gathering, error) {
	var w whereBuilder
	if len(q.IDs) > 0 {
		w.add("id::text = ANY($%d)", pq.Array(q.IDs))
	}
	if q.CreatorID != "" {
		w.add("creator_id = $%d", q.CreatorID)
	}
	if q.Title != "" {
		w.add("title = $%d", q.Title)
	}
	if q.HostID != "" {
		w.add("$%d = ANY(hosts)", q.HostID)
	}
	if q.AcceptorID != "" {
		w.add("$%d = ANY(acceptors)", q.AcceptorID)
	}
	if q.Canceled != nil {
		w.add("canceled = $%d", *q.Canceled)
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM gatherings
		%s
		ORDER BY updated_at DESC
	`, gatheringColumns, w.String())
	var rows []gatheringRow
	if err := r.DB.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Gathering, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *gatheringRepository) Update(ctx context.Context, id string, u domain.GatheringUpdate) (*domain.Gathering, error) {
	if err := u.CheckAllowed(domain.UpdatableFields); err != nil {
		return nil, err
	}
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	if u.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *u.Title)
		n++
	}
	if u.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *u.Description)
		n++
	}
	if u.Canceled != nil {
		setClauses = append(setClauses, fmt.Sprintf("canceled = $%d", n))
		args = append(args, *u.Canceled)
		n++
	}
	if u.Acceptors != nil {
		setClauses = append(setClauses, fmt.Sprintf("acceptors = $%d", n))
		args = append(args, pq.Array(*u.Acceptors))
		n++
	}
	if u.Posts != nil {
		setClauses = append(setClauses, fmt.Sprintf("posts = $%d", n))
		args = append(args, pq.Array(*u.Posts))
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE gatherings SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, gatheringColumns)
	var row gatheringRow
	if err := r.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == invalidTextRepresentation {
			return nil, domain.GatheringNotFound(id)
		}
		if pqCode(err) == uniqueViolation && u.Title != nil {
			return nil, r.titleConflict(ctx, id, *u.Title)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// titleConflict builds the name_conflict error for a rename of gathering id, naming its creator.
func (r *gatheringRepository) titleConflict(ctx context.Context, id, title string) error {
	conflict := &domain.Error{Code: domain.CodeNameConflict, GatheringID: id, Title: title}
	if err := r.DB.GetContext(ctx, &conflict.UserID, `SELECT creator_id FROM gatherings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("look up creator: %w", errors.Join(err, conflict))
	}
	return conflict
}

func (r *gatheringRepository) AddToSet(ctx context.Context, id string, field domain.GatheringField, values ...string) (*domain.Gathering, error) {
	col, ok := setColumns[field]
	if !ok {
		return nil, &domain.Error{Code: domain.CodeFieldNotAllowed, Field: string(field)}
	}
	query := fmt.Sprintf(`
		UPDATE gatherings SET %[1]s = %[1]s || $2::text[], updated_at = NOW()
		WHERE id = $1 AND NOT (%[1]s && $2::text[])
		RETURNING %[2]s
	`, col, gatheringColumns)
	var row gatheringRow
	err := r.DB.GetContext(ctx, &row, query, id, pq.Array(values))
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	// Either the gathering is gone or a value is already a member.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if v, found := domain.FirstMember(current.Set(field), values...); found {
		return nil, domain.AlreadyMember(id, field, v)
	}
	return nil, fmt.Errorf("add to %s: %w", field, domain.ErrConflict)
}

func (r *gatheringRepository) RemoveFromSet(ctx context.Context, id string, field domain.GatheringField, value string) (*domain.Gathering, error) {
	col, ok := setColumns[field]
	if !ok {
		return nil, &domain.Error{Code: domain.CodeFieldNotAllowed, Field: string(field)}
	}
	cond := fmt.Sprintf("id = $1 AND $2 = ANY(%s)", col)
	if field == domain.FieldHosts {
		cond += " AND creator_id <> $2"
	}
	query := fmt.Sprintf(`
		UPDATE gatherings SET %[1]s = array_remove(%[1]s, $2), updated_at = NOW()
		WHERE %[2]s
		RETURNING %[3]s
	`, col, cond, gatheringColumns)
	var row gatheringRow
	err := r.DB.GetContext(ctx, &row, query, id, value)
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.NotMember(id, field, value)
}

func (r *gatheringRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM gatherings
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM invites WHERE gathering_id = $1)
	`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		switch pqCode(err) {
		case foreignKeyViolation:
			return &domain.Error{Code: domain.CodeGatheringHasInvites, GatheringID: id}
		case invalidTextRepresentation:
			return domain.GatheringNotFound(id)
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM gatherings WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return domain.GatheringNotFound(id)
	}
	return &domain.Error{Code: domain.CodeGatheringHasInvites, GatheringID: id}
}
