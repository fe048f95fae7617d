package flight

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// SearchFilter はフライト検索の条件
// 空文字・nilの項目は条件から除外される
type SearchFilter struct {
	Origin      string
	Destination string
	Date        *time.Time
}

// Repository はフライトリポジトリのインターフェース
type Repository interface {
	// Create は新しいフライトを作成する（外部フィード・カタログ登録用）
	Create(ctx context.Context, flight *Flight) error

	// GetByID はIDからフライトを取得する
	GetByID(ctx context.Context, id string) (*Flight, error)

	// GetByIDForUpdate はフライト行をロックして取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Flight, error)

	// Search は条件に一致するフライト一覧を出発時刻順で取得する
	Search(ctx context.Context, filter SearchFilter) ([]*Flight, error)

	// AdjustAvailableSeats は空席数を増減する（トランザクション必須）
	// delta は予約時に負、キャンセル時に正。制約違反で1行も更新されない場合は
	// ErrSeatAdjustConflict を返す
	AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, flightID string, delta int) error

	// CountAvailableSeats はフライトの現在の空席数を取得する
	CountAvailableSeats(ctx context.Context, flightID string) (int, error)
}
