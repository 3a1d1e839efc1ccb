package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/brandlink/internal/middleware"
	"github.com/hitoshi/brandlink/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// GetProfile はプロフィールを取得する。
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	// UpdateProfile は呼び出し元自身のプロフィールを更新する。
	UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error)
	// ListProfiles はフィルター条件でプロフィール一覧を取得する。
	ListProfiles(ctx context.Context, filter model.ProfileFilter) ([]*model.Profile, error)
}

// SocialPostLister はプロフィールの最新投稿を取得するインターフェース。
// repository.SocialPostRepositoryの部分集合として定義する。
type SocialPostLister interface {
	ListByProfileID(ctx context.Context, profileID string, limit int) ([]*model.SocialPost, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service    ProfileServiceInterface
	postLister SocialPostLister
	translator Translator
	postsLimit int
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, postLister SocialPostLister, translator Translator) *ProfileHandler {
	return &ProfileHandler{
		service:    service,
		postLister: postLister,
		translator: translator,
		postsLimit: 20,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// ポインタフィールドで「未指定」と「空文字への更新」を区別する。
type updateProfileRequest struct {
	Name        *string           `json:"name"`
	Bio         *string           `json:"bio"`
	Website     *string           `json:"website"`
	AvatarURL   *string           `json:"avatar_url"`
	SocialLinks map[string]string `json:"social_links"`
}

// profileResponse はプロフィール情報のAPIレスポンス。
type profileResponse struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        string            `json:"role"`
	Bio         string            `json:"bio,omitempty"`
	Website     string            `json:"website,omitempty"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	SocialLinks map[string]string `json:"social_links"`
	Verified    bool              `json:"verified"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// socialPostResponse はソーシャル投稿のAPIレスポンス。
type socialPostResponse struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// ListProfiles はプロフィール一覧を取得する。
// GET /profiles?role=xxx&verified=true
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	filter := model.ProfileFilter{
		// 未知のロール値もリテラルフィルターとしてそのまま通す（該当0件）
		Role: r.URL.Query().Get("role"),
	}

	if v := r.URL.Query().Get("verified"); v != "" {
		verified := v == "true"
		filter.Verified = &verified
	}

	profiles, err := h.service.ListProfiles(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	responses := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		responses = append(responses, toProfileResponse(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"profiles": responses})
}

// GetProfile はプロフィール詳細を取得する。
// GET /profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	profile, err := h.service.GetProfile(r.Context(), profileID)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toProfileResponse(profile)})
}

// UpdateProfile は呼び出し元自身のプロフィールを更新する。
// PUT /profiles
//
// 更新対象の行は常にセッションのユーザーID。他人のプロフィールは更新できない。
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	patch := model.ProfilePatch{
		Name:        req.Name,
		Bio:         req.Bio,
		Website:     req.Website,
		AvatarURL:   req.AvatarURL,
		SocialLinks: req.SocialLinks,
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profile": toProfileResponse(profile),
		"message": h.successMessage(r, "profile.update_success", "Profile updated successfully"),
	})
}

// ListPosts はプロフィールの最新ソーシャル投稿を取得する。
// GET /profiles/{id}/posts
func (h *ProfileHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	// プロフィールの存在確認（未検出は404）
	if _, err := h.service.GetProfile(r.Context(), profileID); err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	posts, err := h.postLister.ListByProfileID(r.Context(), profileID, h.postsLimit)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	responses := make([]socialPostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, socialPostResponse{
			ID:          p.ID,
			Source:      p.Source,
			Title:       p.Title,
			URL:         p.URL,
			Summary:     p.Summary,
			PublishedAt: p.PublishedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": responses})
}

// successMessage はリクエストロケールで成功メッセージを翻訳する。
func (h *ProfileHandler) successMessage(r *http.Request, key, fallback string) string {
	if h.translator == nil {
		return fallback
	}
	locale := middleware.LocaleFromContext(r.Context())
	return h.translator.Translate(locale, key, fallback)
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(profile *model.Profile) profileResponse {
	links := profile.SocialLinks
	if links == nil {
		links = map[string]string{}
	}
	return profileResponse{
		ID:          profile.ID,
		Email:       profile.Email,
		Name:        profile.Name,
		Role:        string(profile.Role),
		Bio:         profile.Bio,
		Website:     profile.Website,
		AvatarURL:   profile.AvatarURL,
		SocialLinks: links,
		Verified:    profile.Verified,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
