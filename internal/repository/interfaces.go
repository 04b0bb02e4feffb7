// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/yoyaku/internal/model"
)

// ErrStartTimeConflict はstart_timeのユニーク制約違反を表す。
// 同時実行の予約競合はアプリケーション層の事前チェックではなく、
// この制約違反の検出によってのみ確定する。
// サービス層はこのエラーをSlotConflictに写像する。
var ErrStartTimeConflict = model.NewSlotConflictError()

// AppointmentRepository は予約データの永続化インターフェース。
// 実装はstart_timeに対するストレージレベルのユニーク制約を持たなければ
// ならず、同一スロットへの同時Createは必ず片方がErrStartTimeConflictで
// 失敗する。
type AppointmentRepository interface {
	// Create は予約を作成する。IDとCreatedAtはストア側で採番・設定し、
	// apptに書き戻す。start_time重複時はErrStartTimeConflictを返す。
	Create(ctx context.Context, appt *model.Appointment) error

	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Appointment, error)

	// ListByRange は[start, end)のstart_timeを持つ予約をstart_time昇順で返す。
	ListByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error)

	// ListStartTimes は[start, end)の予約済みstart_timeを昇順で返す。
	ListStartTimes(ctx context.Context, start, end time.Time) ([]time.Time, error)

	// ExistsByStartTime は指定start_timeの予約が存在するか返す。
	// excludeIDが空でない場合、そのIDの予約は判定から除外する
	// （編集中レコード自身との競合を避けるため）。
	ExistsByStartTime(ctx context.Context, startTime time.Time, excludeID string) (bool, error)

	// Update は予約の全フィールドを単一のUPDATE文で更新する。
	// 複数フィールドの変更は全て適用されるか全て適用されないかのいずれか。
	// start_time重複時はErrStartTimeConflictを返す。
	Update(ctx context.Context, appt *model.Appointment) error

	// DeleteByID は指定IDの予約を削除する。削除した場合はtrueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// AdminRepository は管理者データの永続化インターフェース。
type AdminRepository interface {
	// FindByEmail は指定メールアドレスの管理者を取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)

	// CreateWithCredential は管理者と認証情報を同一トランザクションで作成する。
	// IDとCreatedAt/UpdatedAtはストア側で設定し、adminに書き戻す。
	CreateWithCredential(ctx context.Context, admin *model.Admin, cred *model.AdminCredential) error
}
