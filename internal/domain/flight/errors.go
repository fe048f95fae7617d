package flight

import "errors"

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound        = errors.New("フライトが見つかりません")
	ErrFlightNotActive       = errors.New("フライトは予約を受け付けていません")
	ErrFlightNumberRequired  = errors.New("便名は必須です")
	ErrOriginRequired        = errors.New("出発地は必須です")
	ErrDestinationRequired   = errors.New("目的地は必須です")
	ErrInvalidTotalSeats     = errors.New("総座席数は1以上である必要があります")
	ErrInvalidAvailableSeats = errors.New("空席数は0以上かつ総座席数以下である必要があります")
	ErrInvalidPrice          = errors.New("価格は0以上である必要があります")
	ErrSeatAdjustConflict    = errors.New("空席数の更新が座席数の制約に違反しました")
)
