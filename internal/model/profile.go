// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロフィールのロールを表す。
type Role string

const (
	// RoleBrand はブランド（広告主）ロール。
	RoleBrand Role = "brand"
	// RoleInfluencer はインフルエンサーロール。
	// ブートストラップ時のデフォルトロール。
	RoleInfluencer Role = "influencer"
)

// Profile はユーザーの公開プロフィールを表す。
// IDは認証サービスのユーザーIDと1:1で共有される（独立採番しない）。
type Profile struct {
	ID          string
	Email       string
	Name        string
	Role        Role
	Bio         string
	Website     string
	AvatarURL   string
	SocialLinks map[string]string // プラットフォーム名 -> URL（例: "instagram" -> "https://..."）
	Verified    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfilePatch はプロフィール部分更新の入力を表す。
// nilフィールドは変更しない。
type ProfilePatch struct {
	Name        *string
	Bio         *string
	Website     *string
	AvatarURL   *string
	SocialLinks map[string]string
}

// ProfileFilter はプロフィール一覧の等値フィルタを表す。
// 空文字/nilのフィールドはフィルタしない。
// Roleはenum検証せず、未知の値はそのまま等値条件として通す（結果0件）。
type ProfileFilter struct {
	Role     string
	Verified *bool
}
