package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/airline"
)

type airlineRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Code string `db:"code"`
}

type AirlineRepository struct{ db *sqlx.DB }

func NewAirlineRepository(db *sqlx.DB) *AirlineRepository { return &AirlineRepository{db: db} }

func (r *AirlineRepository) GetByID(ctx context.Context, id string) (*airline.Airline, error) {
	var row airlineRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, code FROM airlines WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, airline.ErrAirlineNotFound
		}
		return nil, fmt.Errorf("航空会社取得に失敗: %w", err)
	}
	return &airline.Airline{ID: row.ID, Name: row.Name, Code: row.Code}, nil
}

// GetOrCreate は名前で検索し、無ければ挿入する
// 同名の同時挿入は UNIQUE 制約違反(23505)を検知して再検索にフォールバックする
func (r *AirlineRepository) GetOrCreate(ctx context.Context, name, code string) (*airline.Airline, error) {
	a := airline.NewAirline(name, code)
	if err := a.Validate(); err != nil {
		return nil, err
	}

	var row airlineRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, code FROM airlines WHERE name = $1`, a.Name)
	if err == nil {
		return &airline.Airline{ID: row.ID, Name: row.Name, Code: row.Code}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("航空会社検索に失敗: %w", err)
	}

	insertErr := r.db.QueryRowContext(ctx,
		`INSERT INTO airlines (name, code) VALUES ($1, $2) RETURNING id`, a.Name, a.Code,
	).Scan(&a.ID)
	if insertErr == nil {
		return a, nil
	}
	if pgErr, ok := insertErr.(*pq.Error); ok && pgErr.Code == "23505" {
		if err := r.db.GetContext(ctx, &row, `SELECT id, name, code FROM airlines WHERE name = $1`, a.Name); err != nil {
			return nil, fmt.Errorf("航空会社再検索に失敗: %w", err)
		}
		return &airline.Airline{ID: row.ID, Name: row.Name, Code: row.Code}, nil
	}
	return nil, fmt.Errorf("航空会社作成に失敗: %w", insertErr)
}

var _ airline.Repository = (*AirlineRepository)(nil)
