package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/brandlink/internal/model"
	"github.com/hitoshi/brandlink/internal/repository"
	"github.com/hitoshi/brandlink/internal/security"
)

// Service はプロフィールの取得・更新・一覧のビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	sanitizer   security.ContentSanitizerService
	ssrfGuard   security.SSRFGuardService
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
	}
}

// GetProfile は指定IDのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(id)
	}
	return profile, nil
}

// UpdateProfile は認証済みユーザー自身のプロフィールを部分更新する。
// 他ユーザーの行は更新できない（対象IDは常にセッションのユーザーID）。
// 名前とbioはタグ除去サニタイズを適用し、URL系フィールドは
// スキーム・ホストの安全性を検証する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error) {
	if patch.Name != nil {
		name := s.sanitizer.SanitizeText(*patch.Name)
		if name == "" {
			return nil, invalidFieldError("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Bio != nil {
		bio := s.sanitizer.SanitizeText(*patch.Bio)
		patch.Bio = &bio
	}
	if patch.Website != nil && *patch.Website != "" {
		if err := s.ssrfGuard.ValidateURL(*patch.Website); err != nil {
			return nil, invalidFieldError(fmt.Sprintf("invalid website URL: %v", err))
		}
	}
	if patch.AvatarURL != nil && *patch.AvatarURL != "" {
		if err := s.ssrfGuard.ValidateURL(*patch.AvatarURL); err != nil {
			return nil, invalidFieldError(fmt.Sprintf("invalid avatar URL: %v", err))
		}
	}
	for platform, link := range patch.SocialLinks {
		if link == "" {
			continue
		}
		if err := s.ssrfGuard.ValidateURL(link); err != nil {
			return nil, invalidFieldError(fmt.Sprintf("invalid social link for %s: %v", platform, err))
		}
	}

	updated, err := s.profileRepo.UpdateByID(ctx, userID, patch)
	if err != nil {
		// ストア起因の失敗はメッセージをそのまま伝搬しBadRequestとして応答する
		return nil, model.NewStoreFailureError(err.Error())
	}
	if updated == nil {
		return nil, model.NewProfileNotFoundError(userID)
	}

	slog.Info("profile updated", slog.String("profile_id", userID))
	return updated, nil
}

// ListProfiles はフィルタを適用した公開プロフィール一覧をcreated_at降順で返す。
// ロールは検証せず未知の値もそのまま等値条件として通す（結果は0件になる）。
func (s *Service) ListProfiles(ctx context.Context, filter model.ProfileFilter) ([]*model.Profile, error) {
	profiles, err := s.profileRepo.List(ctx, filter)
	if err != nil {
		return nil, model.NewStoreFailureError(err.Error())
	}
	return profiles, nil
}

// invalidFieldError はフィールド検証エラーを生成する。
func invalidFieldError(message string) *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
	}
}
