package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/open-sams/sams-api/internal/models"
)

// UserRepository reads user and department reference data.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID fetches a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, full_name, role, department_id, created_at, updated_at
		FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ResolveDepartment returns the department a user belongs to. A direct
// users.department_id assignment wins; otherwise heading a department counts
// as membership. Returns nil when neither applies.
func (r *UserRepository) ResolveDepartment(ctx context.Context, userID string) (*string, error) {
	const query = `SELECT COALESCE(u.department_id, d.id)
		FROM users u
		LEFT JOIN departments d ON d.head_user_id = u.id
		WHERE u.id = $1
		LIMIT 1`
	var deptID sql.NullString
	if err := r.db.GetContext(ctx, &deptID, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("resolve department: %w", err)
	}
	if !deptID.Valid {
		return nil, nil
	}
	return &deptID.String, nil
}

// FindDepartment fetches a department by identifier.
func (r *UserRepository) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, head_user_id FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}
