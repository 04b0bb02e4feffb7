// Package handler はHTTP APIのルーティングとリクエスト処理を提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/yoyaku/internal/appointment"
	"github.com/hitoshi/yoyaku/internal/model"
)

// AppointmentServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type AppointmentServiceInterface interface {
	// List は指定週の予約一覧を返す。
	List(ctx context.Context, weekOffset int) (*appointment.ListPage, error)
	// AvailableSlots は指定週の空きスロット一覧を返す。
	AvailableSlots(ctx context.Context, weekOffset int) (*appointment.SlotsPage, error)
	// Create は予約を検証して作成する。
	Create(ctx context.Context, input appointment.CreateInput) (*appointment.View, error)
	// Get は指定IDの予約を返す。
	Get(ctx context.Context, id string) (*appointment.View, error)
	// Update は予約を部分更新する。
	Update(ctx context.Context, id string, fields map[string]*string) (*appointment.View, error)
	// Delete は指定IDの予約を削除する。
	Delete(ctx context.Context, id string) error
}

// AppointmentHandler は予約管理のHTTPハンドラー。
type AppointmentHandler struct {
	service AppointmentServiceInterface
}

// NewAppointmentHandler はAppointmentHandlerを生成する。
func NewAppointmentHandler(service AppointmentServiceInterface) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// createRequest は予約作成リクエストのボディ。
type createRequest struct {
	StartTime string `json:"start_time"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason"`
}

// errorResponse はAPIエラーレスポンスの統一フォーマット。
type errorResponse struct {
	Error string `json:"error"`
}

// ListAppointments は指定週の予約一覧を返す。
// GET /appointments?page=N
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	page := parsePageParam(r)

	result, err := h.service.List(r.Context(), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListAvailableSlots は指定週の空きスロット一覧を返す。
// GET /appointments/available?page=N
func (h *AppointmentHandler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	page := parsePageParam(r)

	result, err := h.service.AvailableSlots(r.Context(), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateAppointment は予約を作成する。
// POST /appointments
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	view, err := h.service.Create(r.Context(), appointment.CreateInput{
		StartTime: req.StartTime,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Reason:    req.Reason,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// GetAppointment は予約1件を返す。
// GET /appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateAppointment は予約を部分更新する。
// PATCH /appointments/{id}
// ボディはstart_time, name, email, phone, reasonの任意の部分集合。
// JSONのnullはフィールド未指定と同義に扱う。
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	view, err := h.service.Update(r.Context(), id, fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// DeleteAppointment は予約をキャンセルする。
// DELETE /appointments/{id}
func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parsePageParam はpageクエリパラメータを週オフセットとして解釈する。
// 欠落・非整数は0、負値は0に丸める。
func parsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeErrorResponse は統一フォーマットでエラーレスポンスを書き込む。
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error.")
}

// mapAPIErrorToHTTPStatus はAPIErrorカテゴリからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryConflict:
		return http.StatusConflict
	case model.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
