// Package model はドメインモデルを定義する。
package model

import "time"

// SocialPost はインフルエンサーのソーシャルリンクから取得した最近の投稿を表す。
// RSS/Atomフィードを公開しているリンクのみが対象で、ワーカーが定期的に更新する。
type SocialPost struct {
	ID          string
	ProfileID   string
	Source      string // social_linksのキー（例: "blog", "youtube"）
	Title       string
	URL         string
	Summary     string // サニタイズ済み
	PublishedAt time.Time
	FetchedAt   time.Time
}
