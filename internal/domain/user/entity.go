package user

import "time"

// User は登録ユーザーを表す
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	RegisteredAt time.Time
}

// NewUser は新規登録用のユーザーを作成する
func NewUser(name, email, phone string) *User {
	return &User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		RegisteredAt: time.Now(),
	}
}
