package user

import "context"

// Repository はユーザーディレクトリのインターフェース
type Repository interface {
	// Create はユーザーを登録し、生成されたIDを書き戻す
	// メールアドレスが重複する場合は ErrEmailAlreadyRegistered を返す
	Create(ctx context.Context, u *User, password string) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id string) (*User, error)

	// Authenticate はメールアドレスとパスワードを照合してユーザーを返す
	// 一致しない場合は ErrInvalidCredentials を返す
	Authenticate(ctx context.Context, email, password string) (*User, error)
}
