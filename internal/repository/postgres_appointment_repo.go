package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/yoyaku/internal/model"
)

// pgUniqueViolation はPostgreSQLのunique_violationエラーコード。
const pgUniqueViolation = "23505"

// PostgresAppointmentRepo はPostgreSQLを使用した予約リポジトリ。
// appointmentsテーブルのstart_timeユニーク制約が二重予約防止の唯一の
// 正当性メカニズムであり、制約違反をErrStartTimeConflictとして返す。
type PostgresAppointmentRepo struct {
	db *sql.DB
}

// NewPostgresAppointmentRepo はPostgresAppointmentRepoを生成する。
func NewPostgresAppointmentRepo(db *sql.DB) *PostgresAppointmentRepo {
	return &PostgresAppointmentRepo{db: db}
}

// Create は予約を作成する。IDはUUID、CreatedAtはDB側のnow()で採番し、
// apptに書き戻す。start_timeが重複した場合はErrStartTimeConflictを返す。
func (r *PostgresAppointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	id := uuid.New().String()

	var createdAt time.Time
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO appointments (id, start_time, name, email, phone, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 RETURNING created_at`,
		id, appt.StartTime, appt.Name, appt.Email, appt.Phone, appt.Reason,
	).Scan(&createdAt)

	if isUniqueViolation(err) {
		return ErrStartTimeConflict
	}
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = createdAt
	return nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	appt := &model.Appointment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, start_time, name, email, phone, reason, created_at
		 FROM appointments WHERE id = $1`,
		id,
	).Scan(
		&appt.ID, &appt.StartTime, &appt.Name, &appt.Email,
		&appt.Phone, &appt.Reason, &appt.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}

	return appt, nil
}

// ListByRange は[start, end)のstart_timeを持つ予約をstart_time昇順で返す。
func (r *PostgresAppointmentRepo) ListByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, start_time, name, email, phone, reason, created_at
		 FROM appointments
		 WHERE start_time >= $1 AND start_time < $2
		 ORDER BY start_time ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt := &model.Appointment{}
		if err := rows.Scan(
			&appt.ID, &appt.StartTime, &appt.Name, &appt.Email,
			&appt.Phone, &appt.Reason, &appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("予約一覧の読み取りに失敗しました: %w", err)
		}
		appts = append(appts, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}

	return appts, nil
}

// ListStartTimes は[start, end)の予約済みstart_timeを昇順で返す。
func (r *PostgresAppointmentRepo) ListStartTimes(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT start_time FROM appointments
		 WHERE start_time >= $1 AND start_time < $2
		 ORDER BY start_time ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("予約済みスロットの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("予約済みスロットの読み取りに失敗しました: %w", err)
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約済みスロットの走査に失敗しました: %w", err)
	}

	return times, nil
}

// ExistsByStartTime は指定start_timeの予約が存在するか返す。
// excludeIDが空でない場合、そのIDの予約は判定から除外する。
func (r *PostgresAppointmentRepo) ExistsByStartTime(ctx context.Context, startTime time.Time, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM appointments
		    WHERE start_time = $1 AND ($2 = '' OR id <> $2)
		 )`,
		startTime, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("予約競合の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Update は予約の全フィールドを単一のUPDATE文で更新する。
// start_timeのユニーク制約違反はErrStartTimeConflictとして返すため、
// 事前チェックをすり抜けた競合もここで確定的に失敗する。
func (r *PostgresAppointmentRepo) Update(ctx context.Context, appt *model.Appointment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET
		    start_time = $2, name = $3, email = $4, phone = $5, reason = $6
		 WHERE id = $1`,
		appt.ID, appt.StartTime, appt.Name, appt.Email, appt.Phone, appt.Reason,
	)
	if isUniqueViolation(err) {
		return ErrStartTimeConflict
	}
	if err != nil {
		return fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの予約を削除する。削除した場合はtrueを返す。
func (r *PostgresAppointmentRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("予約の削除に失敗しました: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("予約の削除結果の確認に失敗しました: %w", err)
	}
	return n > 0, nil
}

// isUniqueViolation はPostgreSQLのユニーク制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// compile-time interface check
var _ AppointmentRepository = (*PostgresAppointmentRepo)(nil)
