// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/brandlink/internal/model"
)

// UserRepository は認証サービスのユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。email重複時はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	// OAuth経由の初回ログインで使用する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// InsertIfAbsent はプロフィールをINSERT ... ON CONFLICT (id) DO NOTHINGで作成する。
	// 行が実際に挿入された場合はtrueを、既存行との競合でスキップされた場合はfalseを返す。
	// select-then-insertの競合をストア側の原子的プリミティブで解消する。
	InsertIfAbsent(ctx context.Context, profile *model.Profile) (bool, error)

	// UpdateByID はプロフィールを部分更新し、更新後の行を返す。
	// patchのnilフィールドは変更されない。行が存在しない場合はnilを返す。
	UpdateByID(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error)

	// List は等値フィルタを適用したプロフィール一覧をcreated_at降順で返す。
	List(ctx context.Context, filter model.ProfileFilter) ([]*model.Profile, error)

	// ListWithSocialLinks はsocial_linksが空でないプロフィールを返す。
	// ソーシャルフェッチワーカーの対象列挙に使用する。
	ListWithSocialLinks(ctx context.Context) ([]*model.Profile, error)
}

// CampaignRepository はキャンペーンデータの永続化インターフェース。
type CampaignRepository interface {
	// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Campaign, error)

	// Create はキャンペーンを作成する。
	Create(ctx context.Context, campaign *model.Campaign) error

	// UpdateByID はキャンペーンを部分更新し、更新後の行を返す。
	// patchのnilフィールドは変更されない。行が存在しない場合はnilを返す。
	UpdateByID(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error)

	// DeleteByID は指定IDのキャンペーンを削除する。
	DeleteByID(ctx context.Context, id string) error

	// List は等値フィルタを適用したキャンペーン一覧をcreated_at降順で返す。
	List(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error)
}

// SocialPostRepository はソーシャル投稿データの永続化インターフェース。
type SocialPostRepository interface {
	// ReplaceForSource は指定プロフィール・ソースの投稿を同一トランザクションで洗い替えする。
	ReplaceForSource(ctx context.Context, profileID, source string, posts []*model.SocialPost) error

	// ListByProfileID は指定プロフィールの投稿をpublished_at降順で返す。
	ListByProfileID(ctx context.Context, profileID string, limit int) ([]*model.SocialPost, error)
}
