// Package model はドメインモデルを定義する。
package model

import "time"

// UserMetadata は認証サービスがユーザーに付随して保持するメタデータ。
// OAuthプロバイダーから取得したフルネームと、サインアップ時に指定されたロールを含む。
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// User は認証サービスが管理するユーザーを表す。
// Profileとは別概念で、IDのみを共有する（Profile.ID = User.ID）。
type User struct {
	ID           string
	Email        string
	PasswordHash string // OAuth専用ユーザーの場合は空
	Metadata     UserMetadata
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
