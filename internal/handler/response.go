// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/brandlink/internal/middleware"
	"github.com/hitoshi/brandlink/internal/model"
)

// Translator はエラーメッセージと成功メッセージのロケール翻訳インターフェース。
// i18n.Catalogの部分集合として定義する。
type Translator interface {
	Translate(locale, key, fallback string) string
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
// MessageKeyを持つエラーはリクエストロケールで翻訳する。MessageKeyが空のエラーは
// 上流メッセージのパススルーなので翻訳しない。
func writeAPIErrorResponse(w http.ResponseWriter, r *http.Request, translator Translator, statusCode int, apiErr *model.APIError) {
	message := apiErr.Message
	if translator != nil && apiErr.MessageKey != "" {
		locale := middleware.LocaleFromContext(r.Context())
		message = translator.Translate(locale, apiErr.MessageKey, apiErr.Message)
	}

	writeJSON(w, statusCode, apiErrorResponse{
		Error: message,
		Code:  apiErr.Code,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, translator Translator, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, r, translator, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, apiErrorResponse{
		Error: "An internal error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeBrandRoleRequired, model.ErrCodeNotCampaignOwner:
		return http.StatusForbidden
	case model.ErrCodeProfileNotFound, model.ErrCodeCampaignNotFound:
		return http.StatusNotFound
	case model.ErrCodeSignUpFailed, model.ErrCodeMissingFields,
		model.ErrCodeInvalidRequest, model.ErrCodeStoreFailure,
		model.ErrCodeUnknownLocale:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
