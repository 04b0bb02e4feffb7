package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/yoyaku/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindByEmail は指定メールアドレスの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, phone, is_active, timezone,
		        created_at, updated_at
		 FROM admins WHERE email = $1`,
		email,
	).Scan(
		&admin.ID, &admin.FirstName, &admin.LastName, &admin.Email,
		&admin.Phone, &admin.IsActive, &admin.TimeZone,
		&admin.CreatedAt, &admin.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}

	return admin, nil
}

// CreateWithCredential は管理者と認証情報を同一トランザクションで作成する。
func (r *PostgresAdminRepo) CreateWithCredential(ctx context.Context, admin *model.Admin, cred *model.AdminCredential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO admins (id, first_name, last_name, email, phone, is_active, timezone,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 RETURNING created_at, updated_at`,
		id, admin.FirstName, admin.LastName, admin.Email,
		admin.Phone, admin.IsActive, admin.TimeZone,
	).Scan(&admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return fmt.Errorf("管理者の作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO admin_credentials (admin_id, password_hash, last_login_at)
		 VALUES ($1, $2, $3)`,
		id, cred.PasswordHash, cred.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("管理者認証情報の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	admin.ID = id
	cred.AdminID = id
	return nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
