// Package campaign はブランドのコラボレーション募集キャンペーンの
// 作成・更新・削除・一覧取得を提供する。
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/brandlink/internal/model"
	"github.com/hitoshi/brandlink/internal/repository"
	"github.com/hitoshi/brandlink/internal/security"
)

// CreateInput はキャンペーン作成の入力。
type CreateInput struct {
	Title       string
	Description string
	Budget      int64
	Category    string
	Deadline    time.Time
}

// Service はキャンペーンのビジネスロジックを提供する。
// 作成・更新・削除はbrandロールのプロフィールのみが行え、
// 更新・削除は作成者自身に限定される。
type Service struct {
	campaignRepo repository.CampaignRepository
	profileRepo  repository.ProfileRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	campaignRepo repository.CampaignRepository,
	profileRepo repository.ProfileRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		profileRepo:  profileRepo,
		sanitizer:    sanitizer,
	}
}

// Create は新規キャンペーンを下書き状態で作成する。
// 作成者のプロフィールがbrandロールでない場合はBRAND_ROLE_REQUIREDエラーを返す。
// 説明文はリッチテキストサニタイズを適用して保存する。
func (s *Service) Create(ctx context.Context, brandID string, input CreateInput) (*model.Campaign, error) {
	if err := s.requireBrandRole(ctx, brandID); err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, model.NewMissingFieldsError("title")
	}
	if input.Budget < 0 {
		return nil, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "budget must not be negative",
			Category: "validation",
		}
	}

	now := time.Now()
	campaign := &model.Campaign{
		ID:          uuid.New().String(),
		BrandID:     brandID,
		Title:       s.sanitizer.SanitizeText(input.Title),
		Description: s.sanitizer.SanitizeRichText(input.Description),
		Budget:      input.Budget,
		Category:    input.Category,
		Status:      model.CampaignStatusDraft,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, model.NewStoreFailureError(err.Error())
	}

	slog.Info("campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("brand_id", brandID),
	)
	return campaign, nil
}

// Get は指定IDのキャンペーンを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}
	return campaign, nil
}

// List はフィルタを適用したキャンペーン一覧をcreated_at降順で返す。
func (s *Service) List(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error) {
	campaigns, err := s.campaignRepo.List(ctx, filter)
	if err != nil {
		return nil, model.NewStoreFailureError(err.Error())
	}
	return campaigns, nil
}

// Update はキャンペーンを部分更新する。作成者のみが更新できる。
func (s *Service) Update(ctx context.Context, callerID, campaignID string, patch model.CampaignPatch) (*model.Campaign, error) {
	if err := s.requireOwnership(ctx, callerID, campaignID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := s.sanitizer.SanitizeText(*patch.Title)
		if title == "" {
			return nil, model.NewMissingFieldsError("title")
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		desc := s.sanitizer.SanitizeRichText(*patch.Description)
		patch.Description = &desc
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.CampaignStatusDraft, model.CampaignStatusActive, model.CampaignStatusClosed:
		default:
			return nil, &model.APIError{
				Code:     model.ErrCodeInvalidRequest,
				Message:  fmt.Sprintf("invalid campaign status: %s", *patch.Status),
				Category: "validation",
			}
		}
	}

	updated, err := s.campaignRepo.UpdateByID(ctx, campaignID, patch)
	if err != nil {
		return nil, model.NewStoreFailureError(err.Error())
	}
	if updated == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}

	slog.Info("campaign updated", slog.String("campaign_id", campaignID))
	return updated, nil
}

// Delete はキャンペーンを削除する。作成者のみが削除できる。
func (s *Service) Delete(ctx context.Context, callerID, campaignID string) error {
	if err := s.requireOwnership(ctx, callerID, campaignID); err != nil {
		return err
	}

	if err := s.campaignRepo.DeleteByID(ctx, campaignID); err != nil {
		return model.NewStoreFailureError(err.Error())
	}

	slog.Info("campaign deleted", slog.String("campaign_id", campaignID))
	return nil
}

// requireBrandRole は呼び出し元のプロフィールがbrandロールであることを検証する。
func (s *Service) requireBrandRole(ctx context.Context, profileID string) error {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil || profile.Role != model.RoleBrand {
		return model.NewBrandRoleRequiredError()
	}
	return nil
}

// requireOwnership は呼び出し元がキャンペーンの作成者であることを検証する。
func (s *Service) requireOwnership(ctx context.Context, callerID, campaignID string) error {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return model.NewCampaignNotFoundError(campaignID)
	}
	if campaign.BrandID != callerID {
		return model.NewNotCampaignOwnerError()
	}
	return nil
}
