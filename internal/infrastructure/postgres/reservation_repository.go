package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	FlightID  string    `db:"flight_id"`
	SeatCount int       `db:"seat_count"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *booking.Reservation {
	return &booking.Reservation{
		ID: r.ID, UserID: r.UserID, FlightID: r.FlightID,
		SeatCount: r.SeatCount, Status: booking.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type itineraryRow struct {
	ReservationID string    `db:"id"`
	FlightNumber  string    `db:"flight_number"`
	AirlineName   string    `db:"airline_name"`
	Origin        string    `db:"origin"`
	Destination   string    `db:"destination"`
	DepartureAt   time.Time `db:"departure_at"`
	SeatCount     int       `db:"seat_count"`
	Price         int       `db:"price"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create は予約行を挿入し、生成されたIDをエンティティへ書き戻す
// 旧実装のストアドプロシージャ＋OUTパラメータは INSERT ... RETURNING id に統合
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *booking.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	query := `INSERT INTO reservations (user_id, flight_id, seat_count, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.UserID, res.FlightID, res.SeatCount, string(res.Status), res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		// 部分一意インデックス uq_reservations_active による重複挿入の拒否
		if isUniqueViolation(err) {
			return booking.ErrDuplicateReservation
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// isUniqueViolation はPostgreSQLの一意制約違反(23505)かどうかを判定する
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*booking.Reservation, error) {
	var row reservationRow
	query := `SELECT id, user_id, flight_id, seat_count, status, created_at, updated_at FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Reservation, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}
	var row reservationRow
	query := `SELECT id, user_id, flight_id, seat_count, status, created_at, updated_at FROM reservations WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// HasActiveReservation は確定状態の予約のみを重複とみなす
// キャンセル済みの予約は再予約を妨げない
func (r *ReservationRepository) HasActiveReservation(ctx context.Context, tx transaction.Tx, userID, flightID string) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return false, fmt.Errorf("トランザクションが不正です")
	}
	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE user_id = $1 AND flight_id = $2 AND status = 'confirmed'`
	if err := sqlxTx.GetContext(ctx, &count, query, userID, flightID); err != nil {
		return false, fmt.Errorf("重複予約チェックに失敗: %w", err)
	}
	return count > 0, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, res *booking.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, string(res.Status), res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) ListActiveByUser(ctx context.Context, userID string) ([]*booking.ItineraryEntry, error) {
	query := `SELECT
			r.id, r.seat_count, r.status, r.created_at,
			f.flight_number, f.origin, f.destination, f.departure_at, f.price,
			a.name AS airline_name
		FROM reservations r
		INNER JOIN flights f ON r.flight_id = f.id
		INNER JOIN airlines a ON f.airline_id = a.id
		WHERE r.user_id = $1 AND r.status = 'confirmed'
		ORDER BY r.created_at DESC`
	var rows []itineraryRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	entries := make([]*booking.ItineraryEntry, len(rows))
	for i, row := range rows {
		entries[i] = &booking.ItineraryEntry{
			ReservationID: row.ReservationID,
			FlightNumber:  row.FlightNumber,
			AirlineName:   row.AirlineName,
			Origin:        row.Origin,
			Destination:   row.Destination,
			DepartureAt:   row.DepartureAt,
			SeatCount:     row.SeatCount,
			Price:         row.Price,
			Status:        booking.Status(row.Status),
			CreatedAt:     row.CreatedAt,
		}
	}
	return entries, nil
}

var _ booking.Repository = (*ReservationRepository)(nil)
