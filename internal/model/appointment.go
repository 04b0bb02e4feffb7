// Package model はドメインモデルを定義する。
package model

import "time"

// Appointment は30分枠の予約を表す。
// StartTimeは全予約を通じて一意であり、二重予約はストレージ層の
// ユニーク制約で防止される。
type Appointment struct {
	ID        string
	StartTime time.Time
	Name      string
	Email     string
	Phone     string
	Reason    string
	CreatedAt time.Time
}

// ReasonMaxLength はReasonフィールドの最大文字数。
const ReasonMaxLength = 200
