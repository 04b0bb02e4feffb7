package model

import (
	"errors"
	"fmt"
	"testing"
)

// APIErrorがerrors.Asで取り出せることを検証
func TestAPIError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", NewSlotConflictError())

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As failed to unwrap *APIError")
	}
	if apiErr.Code != ErrCodeSlotConflict {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeSlotConflict)
	}
	if apiErr.Category != CategoryConflict {
		t.Errorf("category = %q, want %q", apiErr.Category, CategoryConflict)
	}
}

// Error()の文字列フォーマットを検証
func TestAPIError_ErrorString(t *testing.T) {
	err := NewAppointmentNotFoundError()
	want := "[APPOINTMENT_NOT_FOUND] Appointment not found."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// クライアント向けメッセージの固定文言を検証。
// これらの文言はAPIレスポンスにそのまま載るため変更してはならない。
func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"必須フィールド", NewMissingFieldError(), "start_time, name, and email are required fields."},
		{"メール形式", NewInvalidEmailError(), "Enter a valid email address."},
		{"reason超過", NewReasonTooLongError(), "Reason cannot exceed 200 characters."},
		{"日時形式", NewMalformedTimestampError(), "Invalid datetime format. Use ISO 8601 (e.g. 2024-01-01T13:30:00Z)."},
		{"過去日時", NewPastSlotError(), "Cannot book an appointment in the past."},
		{"営業日外", NewNonBusinessDayError(), "Appointments are only available Monday through Friday."},
		{"30分境界", NewMisalignedSlotError(), "Appointments must start on the half-hour."},
		{"営業時間外", NewOutsideHoursError(), "Appointment must fall within business hours (9am-5pm)."},
		{"Name空白", NewBlankFieldError("Name"), "Name cannot be blank."},
		{"Email空白", NewBlankFieldError("Email"), "Email cannot be blank."},
		{"未対応フィールド", NewUnsupportedFieldsError([]string{"alpha", "zebra"}), "Unsupported fields supplied: alpha, zebra"},
		{"スロット競合", NewSlotConflictError(), "This time slot has already been booked."},
		{"未検出", NewAppointmentNotFoundError(), "Appointment not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Message != tt.want {
				t.Errorf("message = %q, want %q", tt.err.Message, tt.want)
			}
		})
	}
}
