// Package profile はプロフィールのブートストラップ、更新、一覧取得を提供する。
package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/brandlink/internal/model"
	"github.com/hitoshi/brandlink/internal/repository"
	"github.com/hitoshi/brandlink/internal/security"
)

// BootstrapConfig はブートストラップ後のリダイレクト先パス設定。
type BootstrapConfig struct {
	BrandDashboardPath      string
	InfluencerDashboardPath string
}

// BootstrapMetrics はブートストラップ処理のメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type BootstrapMetrics interface {
	IncProfileInserted()
	IncProfileConflict()
	IncProfileInsertFailure()
}

// Bootstrap はOAuthコールバック後のプロフィール初期化を担当する。
// プロフィールが存在しない場合はデフォルトプロフィールを作成し、
// ロールに応じたダッシュボードのパスを決定する。
type Bootstrap struct {
	profileRepo repository.ProfileRepository
	sanitizer   security.ContentSanitizerService
	metrics     BootstrapMetrics
	config      BootstrapConfig
}

// NewBootstrap はBootstrapを生成する。metricsはnil可。
func NewBootstrap(
	profileRepo repository.ProfileRepository,
	sanitizer security.ContentSanitizerService,
	metrics BootstrapMetrics,
	config BootstrapConfig,
) *Bootstrap {
	return &Bootstrap{
		profileRepo: profileRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
		config:      config,
	}
}

// ResolveLanding はユーザーのプロフィールを確認し、リダイレクト先パスを返す。
//
// プロフィールが存在する場合はそのロールに応じたパスを返す。
// 存在しない場合はデフォルトプロフィール（ロール: influencer）を
// INSERT ... ON CONFLICT (id) DO NOTHING で原子的に作成する。
// 競合（並行リクエストによる作成済み）は「既存あり」として扱い、
// 実際の行のロールでリダイレクト先を決める。
//
// プロフィール作成の失敗はログに記録した上で握りつぶし、
// influencerダッシュボードへのリダイレクトにフォールバックする。
// 認証自体は成功しているため、プロフィール作成の失敗でログインを妨げない。
func (b *Bootstrap) ResolveLanding(ctx context.Context, user *model.User) string {
	// 1. 既存プロフィールの確認
	existing, err := b.profileRepo.FindByID(ctx, user.ID)
	if err != nil {
		slog.Error("profile lookup failed during bootstrap",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return b.pathForRole(model.RoleInfluencer)
	}
	if existing != nil {
		return b.pathForRole(existing.Role)
	}

	// 2. デフォルトプロフィールの原子的作成
	profile := b.defaultProfile(user)
	inserted, err := b.profileRepo.InsertIfAbsent(ctx, profile)
	if err != nil {
		if b.metrics != nil {
			b.metrics.IncProfileInsertFailure()
		}
		slog.Error("default profile creation failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return b.pathForRole(model.RoleInfluencer)
	}

	if inserted {
		if b.metrics != nil {
			b.metrics.IncProfileInserted()
		}
		slog.Info("default profile created",
			slog.String("user_id", user.ID),
			slog.String("role", string(profile.Role)),
		)
		return b.pathForRole(profile.Role)
	}

	// 3. 競合: 並行リクエストが先に作成済み。実際の行のロールを参照する。
	if b.metrics != nil {
		b.metrics.IncProfileConflict()
	}
	slog.Info("default profile insert skipped, row already exists",
		slog.String("user_id", user.ID),
	)

	existing, err = b.profileRepo.FindByID(ctx, user.ID)
	if err != nil || existing == nil {
		slog.Error("profile re-read after conflict failed",
			slog.String("user_id", user.ID),
		)
		return b.pathForRole(model.RoleInfluencer)
	}
	return b.pathForRole(existing.Role)
}

// defaultProfile はユーザー情報からデフォルトプロフィールを構築する。
// 名前はメタデータのfull_name、なければメールアドレスのローカル部を使用する。
// ロールはメタデータに有効なロールがあればそれを、なければinfluencerを使用する。
// メールアドレスからロールを推測することはない。
func (b *Bootstrap) defaultProfile(user *model.User) *model.Profile {
	name := user.Metadata.FullName
	if name == "" {
		name = localPart(user.Email)
	}
	if b.sanitizer != nil {
		name = b.sanitizer.SanitizeText(name)
	}

	role := model.RoleInfluencer
	if user.Metadata.Role == string(model.RoleBrand) {
		role = model.RoleBrand
	}

	now := time.Now()
	return &model.Profile{
		ID:          user.ID,
		Email:       user.Email,
		Name:        name,
		Role:        role,
		SocialLinks: map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// pathForRole はロールに応じたダッシュボードパスを返す。
// brand以外は全てinfluencerダッシュボードへ。
func (b *Bootstrap) pathForRole(role model.Role) string {
	if role == model.RoleBrand {
		return b.config.BrandDashboardPath
	}
	return b.config.InfluencerDashboardPath
}

// localPart はメールアドレスの@より前の部分を返す。
func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
