package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrReservationNotFound         = errors.New("予約が見つかりません")
	ErrReservationAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrDuplicateReservation        = errors.New("このフライトには既に有効な予約があります")
	ErrInsufficientSeats           = errors.New("空席数が不足しています")
	ErrInvalidSeatCount            = errors.New("席数は1以上である必要があります")
	ErrUserIDRequired              = errors.New("ユーザーIDは必須です")
	ErrFlightIDRequired            = errors.New("フライトIDは必須です")
)
