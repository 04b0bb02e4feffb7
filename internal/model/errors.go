// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// MessageはそのままAPIレスポンスの error フィールドになるため、
// クライアント互換性の観点から文言は固定とする。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（クライアント向け）
	Category string // カテゴリ: validation, conflict, not_found, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryConflict   = "conflict"
	CategoryNotFound   = "not_found"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeReasonTooLong       = "REASON_TOO_LONG"
	ErrCodeMalformedTimestamp  = "MALFORMED_TIMESTAMP"
	ErrCodePastSlot            = "PAST_SLOT"
	ErrCodeNonBusinessDay      = "NON_BUSINESS_DAY"
	ErrCodeMisalignedSlot      = "MISALIGNED_SLOT"
	ErrCodeOutsideHours        = "OUTSIDE_HOURS"
	ErrCodeBlankField          = "BLANK_FIELD"
	ErrCodeUnsupportedField    = "UNSUPPORTED_FIELD"
	ErrCodeSlotConflict        = "SLOT_CONFLICT"
	ErrCodeAppointmentNotFound = "APPOINTMENT_NOT_FOUND"
)

// NewMissingFieldError は必須フィールド欠落エラーを生成する。
func NewMissingFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  "start_time, name, and email are required fields.",
		Category: CategoryValidation,
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "Enter a valid email address.",
		Category: CategoryValidation,
	}
}

// NewReasonTooLongError はreason文字数超過エラーを生成する。
func NewReasonTooLongError() *APIError {
	return &APIError{
		Code:     ErrCodeReasonTooLong,
		Message:  "Reason cannot exceed 200 characters.",
		Category: CategoryValidation,
	}
}

// NewMalformedTimestampError は日時パース失敗エラーを生成する。
func NewMalformedTimestampError() *APIError {
	return &APIError{
		Code:     ErrCodeMalformedTimestamp,
		Message:  "Invalid datetime format. Use ISO 8601 (e.g. 2024-01-01T13:30:00Z).",
		Category: CategoryValidation,
	}
}

// NewPastSlotError は過去日時の予約エラーを生成する。
func NewPastSlotError() *APIError {
	return &APIError{
		Code:     ErrCodePastSlot,
		Message:  "Cannot book an appointment in the past.",
		Category: CategoryValidation,
	}
}

// NewNonBusinessDayError は営業日外（土日）の予約エラーを生成する。
func NewNonBusinessDayError() *APIError {
	return &APIError{
		Code:     ErrCodeNonBusinessDay,
		Message:  "Appointments are only available Monday through Friday.",
		Category: CategoryValidation,
	}
}

// NewMisalignedSlotError は30分境界に揃っていない日時のエラーを生成する。
func NewMisalignedSlotError() *APIError {
	return &APIError{
		Code:     ErrCodeMisalignedSlot,
		Message:  "Appointments must start on the half-hour.",
		Category: CategoryValidation,
	}
}

// NewOutsideHoursError は営業時間外の予約エラーを生成する。
func NewOutsideHoursError() *APIError {
	return &APIError{
		Code:     ErrCodeOutsideHours,
		Message:  "Appointment must fall within business hours (9am-5pm).",
		Category: CategoryValidation,
	}
}

// NewBlankFieldError は更新時のフィールド空白エラーを生成する。
// labelには "Name" や "Email" のような表示名を渡す。
func NewBlankFieldError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeBlankField,
		Message:  fmt.Sprintf("%s cannot be blank.", label),
		Category: CategoryValidation,
	}
}

// NewUnsupportedFieldsError は更新時の未対応フィールドエラーを生成する。
// keysはソート済みであること。
func NewUnsupportedFieldsError(keys []string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedField,
		Message:  fmt.Sprintf("Unsupported fields supplied: %s", strings.Join(keys, ", ")),
		Category: CategoryValidation,
	}
}

// NewSlotConflictError は予約枠の競合エラーを生成する。
// ストレージ層のユニーク制約違反をサービス層でこのエラーに写像する。
func NewSlotConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotConflict,
		Message:  "This time slot has already been booked.",
		Category: CategoryConflict,
	}
}

// NewAppointmentNotFoundError は予約未検出エラーを生成する。
func NewAppointmentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAppointmentNotFound,
		Message:  "Appointment not found.",
		Category: CategoryNotFound,
	}
}
