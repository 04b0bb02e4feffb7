package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/hitoshi/yoyaku/internal/model"
)

// ユニーク制約違反の判定を検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique_violation", &pq.Error{Code: "23505"}, true},
		{"ラップされたunique_violation", fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"}), true},
		{"別のpqエラー", &pq.Error{Code: "23503"}, false},
		{"pq以外のエラー", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// ErrStartTimeConflictがサービス層で競合エラーとして扱えることを検証
func TestErrStartTimeConflict(t *testing.T) {
	var apiErr *model.APIError
	if !errors.As(ErrStartTimeConflict, &apiErr) {
		t.Fatal("ErrStartTimeConflict must unwrap to *model.APIError")
	}
	if apiErr.Category != model.CategoryConflict {
		t.Errorf("category = %q, want %q", apiErr.Category, model.CategoryConflict)
	}
}
