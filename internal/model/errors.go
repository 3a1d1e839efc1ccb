// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Messageは英語のデフォルトメッセージ（または上流サービスのメッセージそのまま）。
// MessageKeyが設定されている場合、レスポンス書き込み時にリクエストロケールで翻訳される。
type APIError struct {
	Code       string // エラーコード
	Message    string // デフォルトメッセージ（英語または上流メッセージのパススルー）
	Category   string // カテゴリ: auth, validation, store, system
	MessageKey string // i18nカタログのキー（空の場合はMessageをそのまま使用）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeSignUpFailed       = "SIGNUP_FAILED"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodeCampaignNotFound   = "CAMPAIGN_NOT_FOUND"
	ErrCodeBrandRoleRequired  = "BRAND_ROLE_REQUIRED"
	ErrCodeNotCampaignOwner   = "NOT_CAMPAIGN_OWNER"
	ErrCodeStoreFailure       = "STORE_FAILURE"
	ErrCodeUnknownLocale      = "UNKNOWN_LOCALE"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:       ErrCodeUnauthorized,
		Message:    "Authentication required",
		Category:   "auth",
		MessageKey: "error.unauthorized",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// upstreamMessageは翻訳せずそのままクライアントに返す。空の場合はデフォルトメッセージを使用する。
func NewInvalidCredentialsError(upstreamMessage string) *APIError {
	msg := upstreamMessage
	if msg == "" {
		msg = "Invalid login credentials"
	}
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  msg,
		Category: "auth",
	}
}

// NewSignUpFailedError はサインアップ失敗エラーを生成する。
// upstreamMessageが空の場合はデフォルトメッセージを使用する。
func NewSignUpFailedError(upstreamMessage string) *APIError {
	msg := upstreamMessage
	if msg == "" {
		msg = "Sign up failed"
	}
	return &APIError{
		Code:     ErrCodeSignUpFailed,
		Message:  msg,
		Category: "auth",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError(fields ...string) *APIError {
	return &APIError{
		Code:       ErrCodeMissingFields,
		Message:    fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")),
		Category:   "validation",
		MessageKey: "error.missing_fields",
	}
}

// NewInvalidRequestError はリクエストボディ解析失敗などのエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:       ErrCodeInvalidRequest,
		Message:    "Invalid request body",
		Category:   "validation",
		MessageKey: "error.invalid_request",
	}
}

// NewProfileNotFoundError はプロフィール未検出エラーを生成する。
func NewProfileNotFoundError(profileID string) *APIError {
	return &APIError{
		Code:       ErrCodeProfileNotFound,
		Message:    fmt.Sprintf("Profile not found: %s", profileID),
		Category:   "store",
		MessageKey: "error.profile_not_found",
	}
}

// NewCampaignNotFoundError はキャンペーン未検出エラーを生成する。
func NewCampaignNotFoundError(campaignID string) *APIError {
	return &APIError{
		Code:       ErrCodeCampaignNotFound,
		Message:    fmt.Sprintf("Campaign not found: %s", campaignID),
		Category:   "store",
		MessageKey: "error.campaign_not_found",
	}
}

// NewBrandRoleRequiredError はブランドロールが必要な操作のエラーを生成する。
func NewBrandRoleRequiredError() *APIError {
	return &APIError{
		Code:       ErrCodeBrandRoleRequired,
		Message:    "Only brand accounts can perform this operation",
		Category:   "auth",
		MessageKey: "error.brand_role_required",
	}
}

// NewNotCampaignOwnerError はキャンペーン所有者以外による変更操作のエラーを生成する。
func NewNotCampaignOwnerError() *APIError {
	return &APIError{
		Code:       ErrCodeNotCampaignOwner,
		Message:    "Only the campaign owner can perform this operation",
		Category:   "auth",
		MessageKey: "error.not_campaign_owner",
	}
}

// NewStoreFailureError はレコードストア起因の失敗エラーを生成する。
// ストアのメッセージを翻訳せずそのまま伝搬し、BadRequestとして応答する。
func NewStoreFailureError(storeMessage string) *APIError {
	msg := storeMessage
	if msg == "" {
		msg = "Record store operation failed"
	}
	return &APIError{
		Code:     ErrCodeStoreFailure,
		Message:  msg,
		Category: "store",
	}
}

// NewUnknownLocaleError は未対応ロケールエラーを生成する。
func NewUnknownLocaleError(locale string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownLocale,
		Message:  fmt.Sprintf("Unsupported locale: %s", locale),
		Category: "validation",
	}
}
