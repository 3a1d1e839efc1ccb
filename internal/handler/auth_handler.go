package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/brandlink/internal/middleware"
	"github.com/hitoshi/brandlink/internal/model"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	ExchangeCodeForSession(ctx context.Context, code string) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	SignUp(ctx context.Context, email, password, fullName, role string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// LandingResolver はコールバック後のリダイレクト先パスを解決するインターフェース。
// profile.Bootstrapの部分集合として定義する。
type LandingResolver interface {
	ResolveLanding(ctx context.Context, user *model.User) string
}

// AuthMetrics は認証結果のカウンターインターフェース。nilの場合は記録しない。
type AuthMetrics interface {
	IncAuthSuccess()
	IncAuthFailure()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendBaseURL string // リダイレクト先フロントエンドのベースURL
	SignInPath      string // 認証失敗時のフォールバックパス（例: /signin）
	CookieDomain    string
	CookieSecure    bool
	SessionMaxAge   int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service    AuthServiceInterface
	bootstrap  LandingResolver
	translator Translator
	metrics    AuthMetrics
	config     AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	service AuthServiceInterface,
	bootstrap LandingResolver,
	translator Translator,
	metrics AuthMetrics,
	config AuthHandlerConfig,
) *AuthHandler {
	if config.SignInPath == "" {
		config.SignInPath = "/signin"
	}
	return &AuthHandler{
		service:    service,
		bootstrap:  bootstrap,
		translator: translator,
		metrics:    metrics,
		config:     config,
	}
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// sessionResponse はセッション情報のAPIレスポンス。
// セッションIDはHTTP Only Cookieでのみ渡す。
type sessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.service.GetLoginURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/callback?code=xxx
//
// このルートはJSONを返さない。失敗時もサインインページへの302リダイレクトで
// 完結し、エラーを上位に伝搬しない。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. 認可コードの取得。欠落はエラーではなくフォールバック
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.config.FrontendBaseURL+h.config.SignInPath, http.StatusFound)
		return
	}

	// 2. コードをセッションに交換
	user, session, err := h.service.ExchangeCodeForSession(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncAuthFailure()
		}
		http.Redirect(w, r, h.config.FrontendBaseURL+h.config.SignInPath+"?error=auth_failed", http.StatusFound)
		return
	}

	// 3. セッションCookieを設定（HTTP Only）
	h.setSessionCookie(w, session.ID)

	if h.metrics != nil {
		h.metrics.IncAuthSuccess()
	}

	// 4. プロフィールの有無を解決し、ロールに応じたダッシュボードへリダイレクト
	landing := h.bootstrap.ResolveLanding(r.Context(), user)
	http.Redirect(w, r, h.config.FrontendBaseURL+landing, http.StatusFound)
}

// SignIn はメールアドレスとパスワードによるサインインを処理する。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	// フィールド検証はサービスに委譲する前にハンドラーで行う
	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest,
			model.NewMissingFieldsError("email", "password"))
		return
	}

	user, session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.IncAuthFailure()
		}
		handleServiceError(w, r, h.translator, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	if h.metrics != nil {
		h.metrics.IncAuthSuccess()
	}

	// プロフィール行を確保する（未作成なら原子的に作成される）
	h.bootstrap.ResolveLanding(r.Context(), user)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(user),
		"session": sessionResponse{ExpiresAt: session.ExpiresAt},
		"message": h.successMessage(r, "auth.signin_success", "Signed in successfully"),
	})
}

// SignUp は新規アカウント登録を処理する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	missing := make([]string, 0, 4)
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if req.FullName == "" {
		missing = append(missing, "full_name")
	}
	if req.Role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		writeAPIErrorResponse(w, r, h.translator, http.StatusBadRequest,
			model.NewMissingFieldsError(missing...))
		return
	}

	user, session, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		if h.metrics != nil {
			h.metrics.IncAuthFailure()
		}
		handleServiceError(w, r, h.translator, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	if h.metrics != nil {
		h.metrics.IncAuthSuccess()
	}

	// サインアップ時点でプロフィール行を作成する。OAuthコールバックを
	// 経由しないユーザーもプロフィール更新やキャンペーン作成を行えるように、
	// メタデータのロールを反映したプロフィールをここでプロビジョニングする。
	h.bootstrap.ResolveLanding(r.Context(), user)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(user),
		"message": h.successMessage(r, "auth.signup_success", "Account created successfully"),
	})
}

// Logout はセッションを破棄する。
// POST /auth/logout
// POST /auth/logout?scope=global で全デバイスのセッションをまとめて破棄する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		logout := h.service.Logout
		if r.URL.Query().Get("scope") == "global" {
			logout = h.service.LogoutAll
		}
		if logoutErr := logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.FrontendBaseURL+h.config.SignInPath, http.StatusTemporaryRedirect)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAPIErrorResponse(w, r, h.translator, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, r, h.translator, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// setSessionCookie はセッションCookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// successMessage はリクエストロケールで成功メッセージを翻訳する。
func (h *AuthHandler) successMessage(r *http.Request, key, fallback string) string {
	if h.translator == nil {
		return fallback
	}
	locale := middleware.LocaleFromContext(r.Context())
	return h.translator.Translate(locale, key, fallback)
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.Metadata.FullName,
		Role:     user.Metadata.Role,
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
