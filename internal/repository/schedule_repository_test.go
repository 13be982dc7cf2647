package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/open-sams/sams-api/internal/models"
)

func TestScheduleRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScheduleEntry{
		ClassID:       "class-1",
		SubjectID:     "subject-1",
		TeacherUserID: "teacher-1",
		TimeSlotID:    "slot-1",
		AcademicYear:  "2026/2027",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_schedules")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.ScheduleEntry{
		ClassID:       "class-1",
		SubjectID:     "subject-1",
		TeacherUserID: "teacher-1",
		TimeSlotID:    "slot-1",
		AcademicYear:  "2026/2027",
	})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.False(t, IsForeignKeyViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "class_id", "subject_id", "teacher_user_id", "time_slot_id", "academic_year",
		"created_at", "updated_at", "class_name", "subject_name", "teacher_name",
		"teacher_department_id", "day_of_week", "period_number", "start_time", "end_time",
	}).AddRow(
		"entry-1", "class-1", "subject-1", "teacher-1", "slot-1", "2026/2027",
		time.Now(), time.Now(), "10A", "Physics", "Dewi Lestari",
		"dept-sci", 1, 2, "07:45", "08:30",
	)
	day := 1
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY ts.day_of_week, ts.period_number")).
		WithArgs("class-1", day, "2026/2027").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ScheduleFilter{
		ClassID:      "class-1",
		DayOfWeek:    &day,
		AcademicYear: "2026/2027",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Physics", list[0].SubjectName)
	require.NotNil(t, list[0].TeacherDept)
	require.Equal(t, "dept-sci", *list[0].TeacherDept)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateReportsRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_schedules")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Update(context.Background(), &models.ScheduleEntry{ID: "missing"})
	require.NoError(t, err)
	require.Zero(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
