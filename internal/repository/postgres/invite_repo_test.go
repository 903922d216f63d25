package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"gatherings/internal/domain"
)

var inviteCols = []string{"id", "gathering_id", "from_id", "to_id", "status", "created_at"}

func TestInviteRepository_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "defaults to pending",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invites \(gathering_id, from_id, to_id, status\)`).
					WithArgs("g-1", "alice", "bob", "pending").
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("i-1", ts))
			},
		},
		{
			name: "pair already recorded",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invites`).WillReturnError(&pq.Error{Code: uniqueViolation})
			},
			wantErr: &domain.Error{Code: domain.CodeAlreadyInvited},
		},
		{
			name: "gathering gone",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invites`).WillReturnError(&pq.Error{Code: foreignKeyViolation})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.mock(mock)

			inv := domain.NewInvite("g-1", "alice", "bob", "")
			err := NewInviteRepository(db).Create(ctx, inv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "i-1", inv.ID)
			require.Equal(t, domain.InviteStatusPending, inv.Status)
			require.Equal(t, ts, inv.CreatedAt)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInviteRepository_Restore(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO invites \(id, gathering_id, from_id, to_id, status, created_at\)`).
		WithArgs("i-1", "g-1", "alice", "bob", "pending", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv := &domain.Invite{ID: "i-1", GatheringID: "g-1", FromID: "alice", ToID: "bob", Status: domain.InviteStatusPending, CreatedAt: ts}
	require.NoError(t, NewInviteRepository(db).Restore(ctx, inv))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Error(t, NewInviteRepository(db).Restore(ctx, &domain.Invite{GatheringID: "g-1"}))
}

func TestInviteRepository_Pop(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("deletes and returns", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`DELETE FROM invites\s+WHERE id = \(\s+SELECT id FROM invites\s+WHERE gathering_id::text = \$1 AND to_id = \$2\s+ORDER BY created_at DESC\s+LIMIT 1\s+FOR UPDATE\s+\)`).
			WithArgs("g-1", "bob").
			WillReturnRows(sqlmock.NewRows(inviteCols).AddRow("i-1", "g-1", "alice", "bob", "pending", ts))

		inv, err := NewInviteRepository(db).Pop(ctx, domain.InviteFilter{GatheringID: "g-1", ToID: "bob"})
		require.NoError(t, err)
		require.Equal(t, "i-1", inv.ID)
		require.Equal(t, domain.InviteStatusPending, inv.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("waits on locked rows", func(t *testing.T) {
		var query string
		sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(_, actual string) error {
			query = actual
			return nil
		})))
		require.NoError(t, err)
		t.Cleanup(func() { sqlDB.Close() })
		mock.ExpectQuery(`DELETE FROM invites`).
			WillReturnRows(sqlmock.NewRows(inviteCols).AddRow("i-1", "g-1", "alice", "bob", "accepted", ts))

		_, err = NewInviteRepository(sqlx.NewDb(sqlDB, "postgres")).
			Pop(ctx, domain.InviteFilter{GatheringID: "g-1", ToID: "bob", Status: domain.InviteStatusAccepted})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		require.Contains(t, query, "FOR UPDATE")
		require.NotContains(t, query, "SKIP LOCKED")
		require.NotContains(t, query, "NOWAIT")
	})

	t.Run("nothing to pop", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`DELETE FROM invites`).WillReturnError(sql.ErrNoRows)

		_, err := NewInviteRepository(db).Pop(ctx, domain.InviteFilter{GatheringID: "g-1", ToID: "bob"})
		derr, ok := domain.AsError(err)
		require.True(t, ok)
		require.Equal(t, domain.CodeInviteNotFound, derr.Code)
		require.Equal(t, "bob", derr.UserID)
	})
}

func TestInviteRepository_FindListCount(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	db, mock := newMockDB(t)
	repo := NewInviteRepository(db)

	mock.ExpectQuery(`FROM invites\s+WHERE to_id = \$1 AND status = \$2\s+ORDER BY created_at DESC\s+LIMIT 1`).
		WithArgs("bob", "accepted").
		WillReturnRows(sqlmock.NewRows(inviteCols).AddRow("i-2", "g-1", "alice", "bob", "accepted", ts))
	mock.ExpectQuery(`FROM invites\s+WHERE gathering_id::text = \$1\s+ORDER BY created_at DESC`).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows(inviteCols).
			AddRow("i-2", "g-1", "alice", "bob", "accepted", ts).
			AddRow("i-3", "g-1", "alice", "carol", "pending", ts.Add(-time.Hour)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invites WHERE gathering_id::text = \$1`).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	inv, err := repo.Find(ctx, domain.InviteFilter{ToID: "bob", Status: domain.InviteStatusAccepted})
	require.NoError(t, err)
	require.Equal(t, "i-2", inv.ID)

	list, err := repo.List(ctx, domain.InviteFilter{GatheringID: "g-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "carol", list[1].ToID)

	n, err := repo.Count(ctx, domain.InviteFilter{GatheringID: "g-1"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS gatherings`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
