package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	RegisteredAt time.Time `db:"registered_at"`
}

func (r *userRow) toEntity() *user.User {
	return &user.User{
		ID: r.ID, Name: r.Name, Email: r.Email,
		Phone: r.Phone, RegisteredAt: r.RegisteredAt,
	}
}

type UserRepository struct{ db *sqlx.DB }

func NewUserRepository(db *sqlx.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *user.User, password string) error {
	query := `INSERT INTO users (name, email, phone, password, registered_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.Phone, password, u.RegisteredAt,
	).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("ユーザー登録に失敗: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	query := `SELECT id, name, email, COALESCE(phone, '') AS phone, registered_at FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	var row userRow
	query := `SELECT id, name, email, COALESCE(phone, '') AS phone, registered_at FROM users WHERE email = $1 AND password = $2`
	if err := r.db.GetContext(ctx, &row, query, email, password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("ユーザー認証に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ user.Repository = (*UserRepository)(nil)
