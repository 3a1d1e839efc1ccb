package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/brandlink/internal/campaign"
	"github.com/hitoshi/brandlink/internal/middleware"
	"github.com/hitoshi/brandlink/internal/model"
)

// CampaignServiceInterface はキャンペーンハンドラーが必要とするサービスインターフェース。
type CampaignServiceInterface interface {
	// Create はブランドロールの呼び出し元がキャンペーンを作成する。
	Create(ctx context.Context, brandID string, input campaign.CreateInput) (*model.Campaign, error)
	// Get はキャンペーンを取得する。
	Get(ctx context.Context, id string) (*model.Campaign, error)
	// List はフィルター条件でキャンペーン一覧を取得する。
	List(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error)
	// Update は所有者がキャンペーンを部分更新する。
	Update(ctx context.Context, callerID, campaignID string, patch model.CampaignPatch) (*model.Campaign, error)
	// Delete は所有者がキャンペーンを削除する。
	Delete(ctx context.Context, callerID, campaignID string) error
}

// CampaignHandler はキャンペーン管理のHTTPハンドラー。
type CampaignHandler struct {
	service    CampaignServiceInterface
	translator Translator
}

// NewCampaignHandler はCampaignHandlerを生成する。
func NewCampaignHandler(service CampaignServiceInterface, translator Translator) *CampaignHandler {
	return &CampaignHandler{
		service:    service,
		translator: translator,
	}
}

// createCampaignRequest はキャンペーン作成リクエストのボディ。
type createCampaignRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Category    string    `json:"category"`
	Deadline    time.Time `json:"deadline"`
}

// updateCampaignRequest はキャンペーン更新リクエストのボディ。
type updateCampaignRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Budget      *int64     `json:"budget"`
	Category    *string    `json:"category"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}

// campaignResponse はキャンペーン情報のAPIレスポンス。
type campaignResponse struct {
	ID          string    `json:"id"`
	BrandID     string    `json:"brand_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Budget      int64     `json:"budget"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListCampaigns はキャンペーン一覧を取得する。
// GET /campaigns?status=active&brand_id=xxx&category=beauty
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	filter := model.CampaignFilter{
		BrandID:  r.URL.Query().Get("brand_id"),
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	}

	campaigns, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	responses := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		responses = append(responses, toCampaignResponse(c))
	}

	writeJSON(w, http.StatusOK, map[string]any{"campaigns": responses})
}

// GetCampaign はキャンペーン詳細を取得する。
// GET /campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	c, err := h.service.Get(r.Context(), campaignID)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"campaign": toCampaignResponse(c)})
}

// CreateCampaign はキャンペーンを作成する。ブランドロールが必要。
// POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	c, err := h.service.Create(r.Context(), userID, campaign.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Category:    req.Category,
		Deadline:    req.Deadline,
	})
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"campaign": toCampaignResponse(c),
		"message":  h.successMessage(r, "campaign.create_success", "Campaign created successfully"),
	})
}

// UpdateCampaign はキャンペーンを更新する。所有者のみ。
// PUT /campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	campaignID := chi.URLParam(r, "id")

	var req updateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	patch := model.CampaignPatch{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Category:    req.Category,
		Deadline:    req.Deadline,
	}
	if req.Status != nil {
		status := model.CampaignStatus(*req.Status)
		patch.Status = &status
	}

	c, err := h.service.Update(r.Context(), userID, campaignID, patch)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": toCampaignResponse(c),
		"message":  h.successMessage(r, "campaign.update_success", "Campaign updated successfully"),
	})
}

// DeleteCampaign はキャンペーンを削除する。所有者のみ。
// DELETE /campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	campaignID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, campaignID); err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// successMessage はリクエストロケールで成功メッセージを翻訳する。
func (h *CampaignHandler) successMessage(r *http.Request, key, fallback string) string {
	if h.translator == nil {
		return fallback
	}
	locale := middleware.LocaleFromContext(r.Context())
	return h.translator.Translate(locale, key, fallback)
}

// toCampaignResponse はmodel.CampaignからAPIレスポンスに変換する。
func toCampaignResponse(c *model.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		BrandID:     c.BrandID,
		Title:       c.Title,
		Description: c.Description,
		Budget:      c.Budget,
		Category:    c.Category,
		Status:      string(c.Status),
		Deadline:    c.Deadline,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
