package airline

import "strings"

// Airline は航空会社エンティティを表す
type Airline struct {
	ID   string
	Name string
	Code string
}

// NewAirline は新しい航空会社を作成する
// コード未指定の場合は名前の先頭2文字から導出する
func NewAirline(name, code string) *Airline {
	if code == "" {
		code = DeriveCode(name)
	}
	return &Airline{Name: name, Code: code}
}

// DeriveCode は航空会社名から2レターコードを導出する
func DeriveCode(name string) string {
	if len(name) >= 2 {
		return strings.ToUpper(name[:2])
	}
	return "XX"
}

// Validate は航空会社の検証を行う
func (a *Airline) Validate() error {
	if a.Name == "" {
		return ErrAirlineNameRequired
	}
	return nil
}
