package airline

import "errors"

// Airline ドメインのエラー定義
var (
	ErrAirlineNotFound     = errors.New("航空会社が見つかりません")
	ErrAirlineNameRequired = errors.New("航空会社名は必須です")
)
