package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// ItineraryEntry は予約とフライト情報を結合した一覧表示・帳票出力用の行
type ItineraryEntry struct {
	ReservationID string
	FlightNumber  string
	AirlineName   string
	Origin        string
	Destination   string
	DepartureAt   time.Time
	SeatCount     int
	Price         int
	Status        Status
	CreatedAt     time.Time
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成し、生成されたIDをエンティティに設定する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate は予約行をロックして取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// HasActiveReservation はユーザーがフライトに対して確定状態の予約を
	// 持っているかを返す（トランザクション必須）
	HasActiveReservation(ctx context.Context, tx transaction.Tx, userID, flightID string) (bool, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// ListActiveByUser はユーザーの確定状態の予約一覧をフライト情報付きで
	// 作成日時の降順で取得する
	ListActiveByUser(ctx context.Context, userID string) ([]*ItineraryEntry, error)
}
