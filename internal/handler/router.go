package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/brandlink/internal/metrics"
	"github.com/hitoshi/brandlink/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はヘルスチェック対象のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	LocaleMatcher     middleware.LocaleMatcher

	// 認証
	AuthService AuthServiceInterface
	Bootstrap   LandingResolver
	AuthConfig  AuthHandlerConfig
	AuthMetrics AuthMetrics

	// プロフィール
	ProfileService ProfileServiceInterface
	SocialPosts    SocialPostLister

	// キャンペーン
	CampaignService CampaignServiceInterface

	// i18n
	Catalog    MessageCatalog
	Translator Translator

	// 運用
	HealthChecker   HealthChecker
	MetricsGatherer prometheus.Gatherer
	MetricsRecorder middleware.HTTPMetricsRecorder
	Logger          *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → Locale
//	→ (Session → RateLimit(General))  ※認証が必要なグループのみ
//
// 認証ルート（/auth/*）と公開読み取りルートはセッションミドルウェアの外に配置する。
// サインイン・サインアップにはIP単位の専用レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	if deps.LocaleMatcher != nil {
		r.Use(middleware.NewLocaleMiddleware(deps.LocaleMatcher))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Bootstrap, deps.Translator, deps.AuthMetrics, deps.AuthConfig)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.SocialPosts, deps.Translator)
	campaignHandler := NewCampaignHandler(deps.CampaignService, deps.Translator)
	i18nHandler := NewI18nHandler(deps.Catalog)

	// --- 認証不要のルート ---

	// 認証フロー
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)

		// サインイン・サインアップはIP単位のレート制限を追加
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signin", authHandler.SignIn)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.SignUp)
		} else {
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signup", authHandler.SignUp)
		}

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 公開読み取りルート
	r.Get("/profiles", profileHandler.ListProfiles)
	r.Get("/profiles/{id}", profileHandler.GetProfile)
	r.Get("/profiles/{id}/posts", profileHandler.ListPosts)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)

	// i18n文字列テーブル
	r.Get("/i18n", i18nHandler.ListLocales)
	r.Get("/i18n/{locale}", i18nHandler.GetMessages)

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 自分のプロフィール更新
		r.Put("/profiles", profileHandler.UpdateProfile)

		// キャンペーン管理（作成はブランドロール、変更と削除は所有者のみ）
		r.Post("/campaigns", campaignHandler.CreateCampaign)
		r.Put("/campaigns/{id}", campaignHandler.UpdateCampaign)
		r.Delete("/campaigns/{id}", campaignHandler.DeleteCampaign)
	})

	return r
}
