package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation は予約エンティティを表す
// ユーザー・フライト・席数は作成後に変更されない
type Reservation struct {
	ID        string
	UserID    string
	FlightID  string
	SeatCount int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation は新しい予約を作成する（作成時点で確定状態）
func NewReservation(userID, flightID string, seatCount int) *Reservation {
	now := time.Now()
	return &Reservation{
		UserID:    userID,
		FlightID:  flightID,
		SeatCount: seatCount,
		Status:    StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsConfirmed は予約が有効かを返す
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// Cancel は予約をキャンセルする
// 確定状態からの一度きりの遷移のみ許可し、二重キャンセルは拒否する
func (r *Reservation) Cancel() error {
	if r.Status != StatusConfirmed {
		return ErrReservationAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.FlightID == "" {
		return ErrFlightIDRequired
	}
	if r.SeatCount <= 0 {
		return ErrInvalidSeatCount
	}
	return nil
}
