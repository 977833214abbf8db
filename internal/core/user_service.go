package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = "id, location_id, username, email, password_hash, role, is_active, created_at"

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.LocationID, &u.Username, &u.Email,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func validRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleOperator:
		return true
	}
	return false
}

func (s *userService) Create(ctx context.Context, input UserInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, BadRequestf("username is required")
	}
	if input.Password == "" {
		return nil, BadRequestf("password is required")
	}
	role := input.Role
	if role == "" {
		role = RoleOperator
	}
	if !validRole(role) {
		return nil, BadRequestf("invalid role %q", role)
	}
	if role != RoleSuperAdmin && input.LocationID == nil {
		return nil, BadRequestf("locationId is required for role %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (location_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		input.LocationID, username, input.Email, string(hash), role,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("username %s is already taken", username)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Update(ctx context.Context, id int, input UserInput) (*User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = current.Username
	}
	email := input.Email
	if email == nil {
		email = current.Email
	}
	role := input.Role
	if role == "" {
		role = current.Role
	}
	if !validRole(role) {
		return nil, BadRequestf("invalid role %q", role)
	}
	locationID := input.LocationID
	if locationID == nil {
		locationID = current.LocationID
	}
	hash := current.PasswordHash
	if input.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE users
		SET location_id = $1, username = $2, email = $3, password_hash = $4, role = $5
		WHERE id = $6`,
		locationID, username, email, hash, role, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("username %s is already taken", username)
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("user not found")
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1 AND is_active = true", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("user not found")
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, locationID *int) ([]User, error) {
	var rows pgx.Rows
	var err error
	if locationID != nil {
		rows, err = s.pool.Query(ctx,
			"SELECT "+userColumns+" FROM users WHERE location_id = $1 AND is_active = true ORDER BY username",
			*locationID)
	} else {
		rows, err = s.pool.Query(ctx,
			"SELECT "+userColumns+" FROM users WHERE is_active = true ORDER BY username")
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Authenticate returns the same Forbidden error for a missing user and a bad
// password so callers cannot probe for usernames.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 AND is_active = true LIMIT 1",
		username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Forbiddenf("invalid username or password")
		}
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, Forbiddenf("invalid username or password")
	}
	return u, nil
}
