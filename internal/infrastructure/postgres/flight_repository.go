package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

type flightRow struct {
	ID             string    `db:"id"`
	AirlineID      string    `db:"airline_id"`
	FlightNumber   string    `db:"flight_number"`
	Origin         string    `db:"origin"`
	Destination    string    `db:"destination"`
	DepartureAt    time.Time `db:"departure_at"`
	ArrivalAt      time.Time `db:"arrival_at"`
	TotalSeats     int       `db:"total_seats"`
	AvailableSeats int       `db:"available_seats"`
	Price          int       `db:"price"`
	Stops          int       `db:"stops"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r *flightRow) toEntity() *flight.Flight {
	return &flight.Flight{
		ID: r.ID, AirlineID: r.AirlineID, FlightNumber: r.FlightNumber,
		Origin: r.Origin, Destination: r.Destination,
		DepartureAt: r.DepartureAt, ArrivalAt: r.ArrivalAt,
		TotalSeats: r.TotalSeats, AvailableSeats: r.AvailableSeats,
		Price: r.Price, Stops: r.Stops, Status: flight.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const flightColumns = `id, airline_id, flight_number, origin, destination, departure_at, arrival_at, total_seats, available_seats, price, stops, status, created_at, updated_at`

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository { return &FlightRepository{db: db} }

func (r *FlightRepository) Create(ctx context.Context, f *flight.Flight) error {
	query := `INSERT INTO flights (airline_id, flight_number, origin, destination, departure_at, arrival_at, total_seats, available_seats, price, stops, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		f.AirlineID, f.FlightNumber, f.Origin, f.Destination, f.DepartureAt, f.ArrivalAt,
		f.TotalSeats, f.AvailableSeats, f.Price, f.Stops, string(f.Status), f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID); err != nil {
		return fmt.Errorf("フライト作成に失敗: %w", err)
	}
	return nil
}

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*flight.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`
	var row flightRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はフライト行を FOR UPDATE でロックして取得する
// 予約の「確認してから減算する」区間を直列化するために使用する
func (r *FlightRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*flight.Flight, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1 FOR UPDATE`
	var row flightRow
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *FlightRepository) Search(ctx context.Context, filter flight.SearchFilter) ([]*flight.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.Origin != "" {
		args = append(args, "%"+filter.Origin+"%")
		query += fmt.Sprintf(" AND origin ILIKE $%d", len(args))
	}
	if filter.Destination != "" {
		args = append(args, "%"+filter.Destination+"%")
		query += fmt.Sprintf(" AND destination ILIKE $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		query += fmt.Sprintf(" AND departure_at::date = $%d", len(args))
	}
	query += " ORDER BY departure_at"

	var rows []flightRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("フライト検索に失敗: %w", err)
	}
	flights := make([]*flight.Flight, len(rows))
	for i, row := range rows {
		flights[i] = row.toEntity()
	}
	return flights, nil
}

// AdjustAvailableSeats は条件付きUPDATEで空席数を増減する
// WHERE句の範囲条件により、空席数が負になる更新や総座席数を超える更新は
// 1行も変更せず ErrSeatAdjustConflict になる。この影響行数チェックが
// 同時予約によるオーバーブッキングを防ぐ最終防壁となる
func (r *FlightRepository) AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, flightID string, delta int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	query := `UPDATE flights
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE id = $2
		  AND available_seats + $1 >= 0
		  AND available_seats + $1 <= total_seats`
	result, err := sqlxTx.ExecContext(ctx, query, delta, flightID)
	if err != nil {
		return fmt.Errorf("空席数更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return flight.ErrSeatAdjustConflict
	}
	return nil
}

func (r *FlightRepository) CountAvailableSeats(ctx context.Context, flightID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT available_seats FROM flights WHERE id = $1`, flightID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, flight.ErrFlightNotFound
		}
		return 0, fmt.Errorf("空席数取得に失敗: %w", err)
	}
	return count, nil
}

var _ flight.Repository = (*FlightRepository)(nil)
