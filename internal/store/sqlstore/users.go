package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pliu/entradas/internal/models"
	"github.com/pliu/entradas/internal/store"
)

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	if strings.TrimSpace(user.Email) == "" {
		return 0, store.Validationf("email is required")
	}
	if user.Password == "" {
		return 0, store.Validationf("password is required")
	}

	var id int64
	query := s.rebind("INSERT INTO users (name, email, password) VALUES (?, ?, ?) RETURNING id")
	err := s.db.QueryRowContext(ctx, query, user.Name, user.Email, user.Password).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("create user %s: %w", user.Email, store.ErrEmailTaken)
		}
		return 0, wrap("create user", err)
	}
	user.ID = id
	return id, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, COALESCE(name, ''), email, COALESCE(password, '') FROM users WHERE email = ?")
	err := s.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Name, &user.Email, &user.Password)
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(password, '') FROM users WHERE id = ?")
	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Password)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get user %d", id), err)
	}
	return &user, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, id int64, name, email string) error {
	if strings.TrimSpace(email) == "" {
		return store.Validationf("email is required")
	}

	query := s.rebind("UPDATE users SET name = ?, email = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, query, name, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %d: %w", id, store.ErrEmailTaken)
		}
		return wrap("update user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrap("update user", err)
	}
	if rows == 0 {
		return fmt.Errorf("update user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, COALESCE(name, ''), COALESCE(email, '') FROM users ORDER BY id ASC")
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, wrap("list users", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}
