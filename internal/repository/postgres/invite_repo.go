package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gatherings/internal/domain"
)

const inviteColumns = `id, gathering_id, from_id, to_id, status, created_at`

type inviteRow struct {
	ID          string    `db:"id"`
	GatheringID string    `db:"gathering_id"`
	FromID      string    `db:"from_id"`
	ToID        string    `db:"to_id"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r inviteRow) toDomain() *domain.Invite {
	return &domain.Invite{
		ID:          r.ID,
		GatheringID: r.GatheringID,
		FromID:      r.FromID,
		ToID:        r.ToID,
		Status:      domain.InviteStatus(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

type inviteRepository struct {
	DB *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) domain.InviteRepository {
	return &inviteRepository{
		DB: db,
	}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	if inv.Status == "" {
		inv.Status = domain.InviteStatusPending
	}
	query := `
		INSERT INTO invites (gathering_id, from_id, to_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.DB.QueryRowContext(ctx, query, inv.GatheringID, inv.FromID, inv.ToID, string(inv.Status)).
		Scan(&inv.ID, &inv.CreatedAt)
	return mapInsertErr(err, inv)
}

func (r *inviteRepository) Restore(ctx context.Context, inv *domain.Invite) error {
	if inv.ID == "" {
		return fmt.Errorf("restore invite: missing id")
	}
	query := `
		INSERT INTO invites (id, gathering_id, from_id, to_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, inv.ID, inv.GatheringID, inv.FromID, inv.ToID, string(inv.Status), inv.CreatedAt)
	return mapInsertErr(err, inv)
}

func mapInsertErr(err error, inv *domain.Invite) error {
	if err == nil {
		return nil
	}
	switch pqCode(err) {
	case uniqueViolation:
		return &domain.Error{Code: domain.CodeAlreadyInvited, UserID: inv.ToID, GatheringID: inv.GatheringID}
	case foreignKeyViolation, invalidTextRepresentation:
		return domain.GatheringNotFound(inv.GatheringID)
	}
	return err
}

func inviteWhere(f domain.InviteFilter) whereBuilder {
	var w whereBuilder
	if f.ID != "" {
		w.add("id::text = $%d", f.ID)
	}
	if f.GatheringID != "" {
		w.add("gathering_id::text = $%d", f.GatheringID)
	}
	if f.FromID != "" {
		w.add("from_id = $%d", f.FromID)
	}
	if f.ToID != "" {
		w.add("to_id = $%d", f.ToID)
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	return w
}

func (r *inviteRepository) Find(ctx context.Context, f domain.InviteFilter) (*domain.Invite, error) {
	w := inviteWhere(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM invites
		%s
		ORDER BY created_at DESC
		LIMIT 1
	`, inviteColumns, w.String())
	var row inviteRow
	if err := r.DB.GetContext(ctx, &row, query, w.args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.InviteNotFound(f.ToID, f.GatheringID)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *inviteRepository) List(ctx context.Context, f domain.InviteFilter) ([]*domain.Invite, error) {
	w := inviteWhere(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM invites
		%s
		ORDER BY created_at DESC
	`, inviteColumns, w.String())
	var rows []inviteRow
	if err := r.DB.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Pop deletes and returns the newest matching record in one statement. A pop
// racing another transaction on the same row waits for it rather than
// skipping the row, so two concurrent pops cannot both succeed and a pop never
// misses a record that is only locked.
func (r *inviteRepository) Pop(ctx context.Context, f domain.InviteFilter) (*domain.Invite, error) {
	w := inviteWhere(f)
	query := fmt.Sprintf(`
		DELETE FROM invites
		WHERE id = (
			SELECT id FROM invites
			%s
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING %s
	`, w.String(), inviteColumns)
	var row inviteRow
	if err := r.DB.GetContext(ctx, &row, query, w.args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.InviteNotFound(f.ToID, f.GatheringID)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *inviteRepository) Count(ctx context.Context, f domain.InviteFilter) (int, error) {
	w := inviteWhere(f)
	query := `SELECT COUNT(*) FROM invites ` + w.String()
	var n int
	if err := r.DB.GetContext(ctx, &n, query, w.args...); err != nil {
		return 0, err
	}
	return n, nil
}
