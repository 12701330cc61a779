package items

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var itemRowColumns = []string{
	"id", "client_id", "type", "title", "content", "url", "reminder_date", "reminder_completed",
	"tags", "pinned", "color", "folder_id", "deleted", "created_at", "updated_at",
}

func TestGetByClientID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(itemRowColumns).AddRow(
		"srv1", "c1", "note", "title", "content", "", nil, false,
		[]byte(`["a","b"]`), true, "", "", false, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM items WHERE client_id=\$1`).
		WithArgs("c1").
		WillReturnRows(rows)

	it, err := repo.GetByClientID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ServerID != "srv1" || it.Title != "title" || !it.Pinned {
		t.Fatalf("unexpected item: %+v", it)
	}
	if len(it.Tags) != 2 {
		t.Fatalf("tags not decoded: %+v", it.Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByClientID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM items WHERE client_id=\$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	_, err := repo.GetByClientID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestInsert_AssignsServerID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO items .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("srv-uuid"))

	it := &protocol.Item{ClientID: "c1", Type: "note", CreatedAt: now, UpdatedAt: now}
	if err := repo.Insert(context.Background(), it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ServerID != "srv-uuid" {
		t.Fatalf("server id not assigned: %q", it.ServerID)
	}
}

func TestSave_SuccessAndNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE items SET .* WHERE client_id=\$1`)

	mock.ExpectExec(q.String()).WillReturnResult(sqlmock.NewResult(0, 1))
	it := &protocol.Item{ClientID: "c1", Type: "note", UpdatedAt: time.Now()}
	if err := repo.Save(context.Background(), it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(q.String()).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Save(context.Background(), it); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSoftDelete_SuccessAndNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE items SET deleted=TRUE, updated_at=\$2 WHERE client_id=\$1`)
	at := time.Now().UTC()

	mock.ExpectExec(q.String()).WithArgs("c1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SoftDelete(context.Background(), "c1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(q.String()).WithArgs("missing", at).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SoftDelete(context.Background(), "missing", at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestTombstoneByFolder_ZeroRowsIsFine(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE items SET deleted=TRUE, updated_at=\$2 WHERE folder_id=\$1 AND deleted=FALSE`).
		WithArgs("f1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.TombstoneByFolder(context.Background(), "f1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSelectUpdatedSince_NilMeansAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(itemRowColumns).AddRow(
		"s1", "c1", "note", "a", "", "", nil, false, []byte(`[]`), false, "", "", false, now, now,
	).AddRow(
		"s2", "c2", "note", "b", "", "", nil, false, []byte(`[]`), false, "", "", true, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM items ORDER BY updated_at`).WillReturnRows(rows)

	got, err := repo.SelectUpdatedSince(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 items, got %d", len(got))
	}
	if !got[1].Deleted {
		t.Fatalf("tombstones must be included")
	}
}

func TestSelectUpdatedSince_WithWatermark(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	since := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM items WHERE updated_at>=\$1 ORDER BY updated_at`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	got, err := repo.SelectUpdatedSince(context.Background(), &since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
