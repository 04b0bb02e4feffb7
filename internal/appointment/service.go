// Package appointment は予約ライフサイクルのドメインロジックを提供する。
package appointment

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/yoyaku/internal/clock"
	"github.com/hitoshi/yoyaku/internal/model"
	"github.com/hitoshi/yoyaku/internal/repository"
	"github.com/hitoshi/yoyaku/internal/schedule"
)

// MetricsCollector は予約操作のメトリクス記録インターフェース。
type MetricsCollector interface {
	RecordBookingCreated()
	RecordBookingConflict()
	RecordValidationFailure(code string)
}

// View は予約1件のAPI表現。日時はローカルタイムゾーンのISO-8601文字列。
type View struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

// ListPage は週単位の予約一覧レスポンス。
type ListPage struct {
	Page         int    `json:"page"`
	WeekStart    string `json:"week_start"`
	WeekEnd      string `json:"week_end"`
	Appointments []View `json:"appointments"`
	Count        int    `json:"count"`
	HasPrevious  bool   `json:"has_previous"`
	PreviousPage *int   `json:"previous_page"`
	NextPage     int    `json:"next_page"`
}

// SlotsPage は週単位の空きスロット一覧レスポンス。
type SlotsPage struct {
	Page           int      `json:"page"`
	WeekStart      string   `json:"week_start"`
	WeekEnd        string   `json:"week_end"`
	AvailableSlots []string `json:"available_slots"`
	Count          int      `json:"count"`
	HasPrevious    bool     `json:"has_previous"`
	PreviousPage   *int     `json:"previous_page"`
	NextPage       int      `json:"next_page"`
}

// CreateInput は予約作成リクエストの入力。
type CreateInput struct {
	StartTime string
	Name      string
	Email     string
	Phone     string
	Reason    string
}

// updatableFields はUpdateが受け付けるフィールド名。
var updatableFields = map[string]struct{}{
	"start_time": {},
	"name":       {},
	"email":      {},
	"phone":      {},
	"reason":     {},
}

// Service は予約管理のサービス層。
// パース・検証・永続化のオーケストレーションを行う。
// 各ミューテーションは単一のINSERT/UPDATE/DELETE文で実行されるため、
// フィールド変更は常に全適用または全不適用のいずれかになる。
type Service struct {
	repo    repository.AppointmentRepository
	cal     *schedule.Calendar
	clk     clock.Clock
	metrics MetricsCollector
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(repo repository.AppointmentRepository, cal *schedule.Calendar, clk clock.Clock, metrics MetricsCollector) *Service {
	return &Service{
		repo:    repo,
		cal:     cal,
		clk:     clk,
		metrics: metrics,
	}
}

// List は指定週の予約一覧をstart_time昇順で返す。
func (s *Service) List(ctx context.Context, weekOffset int) (*ListPage, error) {
	start, end := s.cal.WeekRange(weekOffset)

	appts, err := s.repo.ListByRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	views := make([]View, len(appts))
	for i, appt := range appts {
		views[i] = s.toView(appt)
	}

	page := &ListPage{
		Page:         weekOffset,
		WeekStart:    s.localDate(start),
		WeekEnd:      s.localDate(end.Add(-time.Second)),
		Appointments: views,
		Count:        len(views),
		HasPrevious:  weekOffset > 0,
		NextPage:     weekOffset + 1,
	}
	if weekOffset > 0 {
		prev := weekOffset - 1
		page.PreviousPage = &prev
	}
	return page, nil
}

// AvailableSlots は指定週の空きスロットをローカルISO文字列の昇順で返す。
// 予約済みスロットを候補から除外し、現在週（offset 0）に限り
// 現在時刻より前のスロットも除外する。
func (s *Service) AvailableSlots(ctx context.Context, weekOffset int) (*SlotsPage, error) {
	start, end := s.cal.WeekRange(weekOffset)
	candidates := s.cal.Slots(start)

	bookedTimes, err := s.repo.ListStartTimes(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("予約済みスロットの取得に失敗しました: %w", err)
	}

	booked := make(map[int64]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t.UnixNano()] = struct{}{}
	}

	now := s.clk.Now()
	isCurrentWeek := weekOffset == 0

	available := make([]string, 0, len(candidates))
	for _, slot := range candidates {
		if _, taken := booked[slot.UnixNano()]; taken {
			continue
		}
		if isCurrentWeek && slot.Before(now) {
			continue
		}
		available = append(available, slot.In(s.clk.Location()).Format(time.RFC3339))
	}

	page := &SlotsPage{
		Page:           weekOffset,
		WeekStart:      s.localDate(start),
		WeekEnd:        s.localDate(end.Add(-time.Second)),
		AvailableSlots: available,
		Count:          len(available),
		HasPrevious:    weekOffset > 0,
		NextPage:       weekOffset + 1,
	}
	if weekOffset > 0 {
		prev := weekOffset - 1
		page.PreviousPage = &prev
	}
	return page, nil
}

// Create は予約を検証して作成する。
// 同一start_timeの予約が既に存在する場合（同時実行を含む）は
// SlotConflictを返す。
func (s *Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	startRaw := strings.TrimSpace(input.StartTime)
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	reason := strings.TrimSpace(input.Reason)

	if startRaw == "" || name == "" || email == "" {
		return nil, s.validationFailed(model.NewMissingFieldError())
	}

	if !isValidEmail(email) {
		return nil, s.validationFailed(model.NewInvalidEmailError())
	}

	if utf8.RuneCountInString(reason) > model.ReasonMaxLength {
		return nil, s.validationFailed(model.NewReasonTooLongError())
	}

	startTime, err := s.cal.ParseStartTime(startRaw)
	if err != nil {
		return nil, s.validationFailed(err)
	}
	if err := s.cal.ValidateSlot(startTime); err != nil {
		return nil, s.validationFailed(err)
	}

	appt := &model.Appointment{
		StartTime: startTime,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Reason:    reason,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		if err == repository.ErrStartTimeConflict {
			s.recordConflict()
		}
		return nil, err
	}

	s.recordCreated()
	view := s.toView(appt)
	return &view, nil
}

// Get は指定IDの予約を返す。
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, model.NewAppointmentNotFoundError()
	}
	view := s.toView(appt)
	return &view, nil
}

// Update は予約を部分更新する。
// fieldsのキーは start_time, name, email, phone, reason のみ許可し、
// それ以外はUnsupportedFieldとして失敗する。値がnilのフィールドは
// 変更しない。検証は start_time → name → email → phone → reason の順で
// 行い、最初の失敗のみを返す。全フィールドの変更は単一のUPDATEで
// コミットされる。
func (s *Service) Update(ctx context.Context, id string, fields map[string]*string) (*View, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, model.NewAppointmentNotFoundError()
	}

	var unknown []string
	for key := range fields {
		if _, ok := updatableFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, s.validationFailed(model.NewUnsupportedFieldsError(unknown))
	}

	if v := fields["start_time"]; v != nil {
		parsed, err := s.cal.ParseStartTime(strings.TrimSpace(*v))
		if err != nil {
			return nil, s.validationFailed(err)
		}
		if err := s.cal.ValidateSlot(parsed); err != nil {
			return nil, s.validationFailed(err)
		}

		// 編集中の予約自身は競合判定から除外する
		taken, err := s.repo.ExistsByStartTime(ctx, parsed, appt.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			s.recordConflict()
			return nil, model.NewSlotConflictError()
		}
		appt.StartTime = parsed
	}

	if v := fields["name"]; v != nil {
		name := strings.TrimSpace(*v)
		if name == "" {
			return nil, s.validationFailed(model.NewBlankFieldError("Name"))
		}
		appt.Name = name
	}

	if v := fields["email"]; v != nil {
		email := strings.TrimSpace(*v)
		if email == "" {
			return nil, s.validationFailed(model.NewBlankFieldError("Email"))
		}
		if !isValidEmail(email) {
			return nil, s.validationFailed(model.NewInvalidEmailError())
		}
		appt.Email = email
	}

	if v := fields["phone"]; v != nil {
		appt.Phone = strings.TrimSpace(*v)
	}

	if v := fields["reason"]; v != nil {
		reason := strings.TrimSpace(*v)
		if utf8.RuneCountInString(reason) > model.ReasonMaxLength {
			return nil, s.validationFailed(model.NewReasonTooLongError())
		}
		appt.Reason = reason
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		// 事前チェック後に割り込まれた場合はユニーク制約が競合を確定させる
		if err == repository.ErrStartTimeConflict {
			s.recordConflict()
		}
		return nil, err
	}

	view := s.toView(appt)
	return &view, nil
}

// Delete は指定IDの予約を削除する。存在しない場合はNotFoundを返す。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewAppointmentNotFoundError()
	}
	return nil
}

// toView は予約をローカルタイムゾーンのAPI表現に変換する。
func (s *Service) toView(appt *model.Appointment) View {
	loc := s.clk.Location()
	return View{
		ID:        appt.ID,
		StartTime: appt.StartTime.In(loc).Format(time.RFC3339),
		Name:      appt.Name,
		Email:     appt.Email,
		Phone:     appt.Phone,
		Reason:    appt.Reason,
		CreatedAt: appt.CreatedAt.In(loc).Format(time.RFC3339),
	}
}

// localDate はローカルタイムゾーンのカレンダー日付文字列を返す。
func (s *Service) localDate(t time.Time) string {
	return t.In(s.clk.Location()).Format("2006-01-02")
}

// validationFailed は検証エラーをメトリクスに記録してそのまま返す。
func (s *Service) validationFailed(err error) error {
	if s.metrics != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			s.metrics.RecordValidationFailure(apiErr.Code)
		}
	}
	return err
}

func (s *Service) recordCreated() {
	if s.metrics != nil {
		s.metrics.RecordBookingCreated()
	}
}

func (s *Service) recordConflict() {
	if s.metrics != nil {
		s.metrics.RecordBookingConflict()
	}
}

// isValidEmail はメールアドレスの構文を検証する。
// アドレス単体（表示名なし）であることと、ドメイン部にドットを
// 含むことを要求する。
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
