// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin は予約を受け付ける管理者を表す。
// 予約APIそのものは認証不要だが、運用上の通知先・管理画面の
// 主体として保持する。
type Admin struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsActive  bool
	TimeZone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminCredential は管理者の認証情報を保持する。
type AdminCredential struct {
	AdminID      string
	PasswordHash string
	LastLoginAt  *time.Time
}

// SetPassword はパスワードをbcryptでハッシュ化して保持する。
func (c *AdminCredential) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword は平文パスワードを保存済みハッシュと照合する。
func (c *AdminCredential) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(raw)) == nil
}
