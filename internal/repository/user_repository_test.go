package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryResolveDepartmentDirect(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(u.department_id, d.id)")).
		WithArgs("head-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("dept-sci"))

	dept, err := repo.ResolveDepartment(context.Background(), "head-1")
	require.NoError(t, err)
	require.NotNil(t, dept)
	require.Equal(t, "dept-sci", *dept)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryResolveDepartmentNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(u.department_id, d.id)")).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(nil))

	dept, err := repo.ResolveDepartment(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Nil(t, dept)
	require.NoError(t, mock.ExpectationsWereMet())
}
