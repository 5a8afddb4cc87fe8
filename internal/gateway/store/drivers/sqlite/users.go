package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, external_id, username, email, first_name, last_name,
	department, job_title, phone_number, employee_id, is_active,
	created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                       domain.User
		firstName, lastName     sql.NullString
		department, jobTitle    sql.NullString
		phoneNumber, employeeID sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Username, &u.Email,
		&firstName, &lastName, &department, &jobTitle,
		&phoneNumber, &employeeID, &u.Active,
		&u.CreatedAt, &u.UpdatedAt, &u.Version,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.FirstName = mapNullStringPtr(firstName)
	u.LastName = mapNullStringPtr(lastName)
	u.Department = mapNullStringPtr(department)
	u.JobTitle = mapNullStringPtr(jobTitle)
	u.PhoneNumber = mapNullStringPtr(phoneNumber)
	u.EmployeeID = mapNullStringPtr(employeeID)
	return u, nil
}

func (r *usersRepo) GetByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetActiveWithRoles(ctx context.Context, externalID string) (domain.User, error) {
	return r.getWithRoles(ctx,
		`WHERE u.external_id = ? AND u.is_active = 1`, externalID)
}

func (r *usersRepo) GetByUsernameWithRoles(ctx context.Context, username string) (domain.User, error) {
	return r.getWithRoles(ctx, `WHERE u.username = ?`, username)
}

// getWithRoles fetches a user and its roles in a single LEFT JOIN query so the
// read path never degenerates into one-query-per-role.
func (r *usersRepo) getWithRoles(ctx context.Context, where string, arg any) (domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.external_id, u.username, u.email, u.first_name,
		       u.last_name, u.department, u.job_title, u.phone_number,
		       u.employee_id, u.is_active, u.created_at, u.updated_at,
		       u.version,
		       r.id, r.role_name, r.created_at
		FROM users u
		LEFT JOIN user_roles r ON r.user_id = u.id
		`+where+`
		ORDER BY r.role_name`, arg)
	if err != nil {
		return domain.User{}, err
	}
	defer rows.Close()

	var (
		u     domain.User
		found bool
	)
	for rows.Next() {
		var (
			firstName, lastName     sql.NullString
			department, jobTitle    sql.NullString
			phoneNumber, employeeID sql.NullString
			roleID                  sql.NullInt64
			roleName                sql.NullString
			roleCreated             sql.NullTime
		)
		err := rows.Scan(
			&u.ID, &u.ExternalID, &u.Username, &u.Email,
			&firstName, &lastName, &department, &jobTitle,
			&phoneNumber, &employeeID, &u.Active,
			&u.CreatedAt, &u.UpdatedAt, &u.Version,
			&roleID, &roleName, &roleCreated,
		)
		if err != nil {
			return domain.User{}, err
		}
		found = true
		u.FirstName = mapNullStringPtr(firstName)
		u.LastName = mapNullStringPtr(lastName)
		u.Department = mapNullStringPtr(department)
		u.JobTitle = mapNullStringPtr(jobTitle)
		u.PhoneNumber = mapNullStringPtr(phoneNumber)
		u.EmployeeID = mapNullStringPtr(employeeID)

		if roleID.Valid {
			u.Roles = append(u.Roles, domain.Role{
				ID:        roleID.Int64,
				UserID:    u.ID,
				Name:      roleName.String,
				CreatedAt: mapNullTime(roleCreated),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) Exists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE external_id = ?)`, externalID).
		Scan(&exists)
	return exists, err
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (external_id, username, email, first_name, last_name,
		                   department, job_title, phone_number, employee_id,
		                   is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		u.ExternalID, u.Username, u.Email,
		mapOptionalString(u.FirstName), mapOptionalString(u.LastName),
		mapOptionalString(u.Department), mapOptionalString(u.JobTitle),
		mapOptionalString(u.PhoneNumber), mapOptionalString(u.EmployeeID),
		u.Active,
	)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}
	return created, nil
}

func (r *usersRepo) Update(ctx context.Context, u domain.User) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, first_name = ?, last_name = ?,
		    department = ?, job_title = ?, phone_number = ?, employee_id = ?,
		    is_active = ?, updated_at = CURRENT_TIMESTAMP, version = version + 1
		WHERE id = ? AND version = ?
		RETURNING `+userColumns,
		u.Username, u.Email,
		mapOptionalString(u.FirstName), mapOptionalString(u.LastName),
		mapOptionalString(u.Department), mapOptionalString(u.JobTitle),
		mapOptionalString(u.PhoneNumber), mapOptionalString(u.EmployeeID),
		u.Active,
		u.ID, u.Version,
	)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Row vanished or version moved underneath us. The caller read
			// the row moments ago, so treat both as a retryable conflict.
			return domain.User{}, store.ErrConflict
		}
		return domain.User{}, mapConstraint(err)
	}
	return updated, nil
}

func (r *usersRepo) SetActive(ctx context.Context, externalID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET is_active = ?, updated_at = CURRENT_TIMESTAMP, version = version + 1
		WHERE external_id = ?`,
		active, externalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ReplaceRoles(ctx context.Context, userID int64, names []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_name) VALUES (?, ?)`,
			userID, name); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *usersRepo) ListRoles(ctx context.Context, userID int64) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, role_name, created_at
		FROM user_roles WHERE user_id = ? ORDER BY role_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.UserID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
