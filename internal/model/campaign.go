// Package model はドメインモデルを定義する。
package model

import "time"

// CampaignStatus はキャンペーンの状態を表す。
type CampaignStatus string

const (
	// CampaignStatusDraft は下書き状態。
	CampaignStatusDraft CampaignStatus = "draft"
	// CampaignStatusActive は募集中状態。
	CampaignStatusActive CampaignStatus = "active"
	// CampaignStatusClosed は募集終了状態。
	CampaignStatusClosed CampaignStatus = "closed"
)

// Campaign はブランドが作成するコラボレーション募集キャンペーンを表す。
type Campaign struct {
	ID          string
	BrandID     string // 作成者のProfile ID（role=brand）
	Title       string
	Description string // サニタイズ済みHTML
	Budget      int64
	Category    string
	Status      CampaignStatus
	Deadline    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CampaignPatch はキャンペーン部分更新の入力を表す。
// nilフィールドは変更しない。
type CampaignPatch struct {
	Title       *string
	Description *string
	Budget      *int64
	Category    *string
	Status      *CampaignStatus
	Deadline    *time.Time
}

// CampaignFilter はキャンペーン一覧の等値フィルタを表す。
type CampaignFilter struct {
	BrandID  string
	Status   string
	Category string
}
