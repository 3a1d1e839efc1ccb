package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/brandlink/internal/model"
)

// MessageCatalog はi18nハンドラーが必要とするカタログインターフェース。
// i18n.Catalogの部分集合として定義する。
type MessageCatalog interface {
	// Messages はロケールの全文字列テーブルを返す。
	Messages(locale string) (map[string]string, error)
	// Locales は対応ロケール一覧を返す。
	Locales() []string
}

// I18nHandler はUI向け文字列テーブルを提供するHTTPハンドラー。
type I18nHandler struct {
	catalog MessageCatalog
}

// NewI18nHandler はI18nHandlerを生成する。
func NewI18nHandler(catalog MessageCatalog) *I18nHandler {
	return &I18nHandler{catalog: catalog}
}

// GetMessages はロケールの文字列テーブルを返す。
// GET /i18n/{locale}
func (h *I18nHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")

	messages, err := h.catalog.Messages(locale)
	if err != nil {
		// 未対応ロケールは404
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUnknownLocale {
			writeJSON(w, http.StatusNotFound, apiErrorResponse{
				Error: apiErr.Message,
				Code:  apiErr.Code,
			})
			return
		}
		handleServiceError(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"locale":   locale,
		"messages": messages,
	})
}

// ListLocales は対応ロケール一覧を返す。
// GET /i18n
func (h *I18nHandler) ListLocales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"locales": h.catalog.Locales()})
}
