package airline

import "context"

// Repository は航空会社リポジトリのインターフェース
type Repository interface {
	// GetByID はIDから航空会社を取得する
	GetByID(ctx context.Context, id string) (*Airline, error)

	// GetOrCreate は名前で航空会社を検索し、存在しなければ作成して返す
	GetOrCreate(ctx context.Context, name, code string) (*Airline, error)
}
