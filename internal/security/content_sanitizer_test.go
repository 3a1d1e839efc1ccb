package security

import (
	"strings"
	"testing"
)

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)

// TestSanitizeText_StripsAllTags はテキスト用サニタイズが全タグを除去することを検証する。
func TestSanitizeText_StripsAllTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "美容とライフスタイルの情報を発信しています",
			want:  "美容とライフスタイルの情報を発信しています",
		},
		{
			name:  "scriptタグを除去する",
			input: `自己紹介<script>alert("xss")</script>です`,
			want:  "自己紹介です",
		},
		{
			name:  "pタグも除去してテキストのみ残す",
			input: "<p>段落テキスト</p>",
			want:  "段落テキスト",
		},
		{
			name:  "imgタグのonerror属性を除去する",
			input: `<img src=x onerror="alert(1)">趣味は旅行`,
			want:  "趣味は旅行",
		},
		{
			name:  "空文字列は空文字列のまま",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_Idempotent はテキストサニタイズの冪等性を検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()
	input := `<b>bold</b><script>bad()</script>plain`

	once := sanitizer.SanitizeText(input)
	twice := sanitizer.SanitizeText(once)
	if once != twice {
		t.Errorf("SanitizeText is not idempotent: first=%q second=%q", once, twice)
	}
}

// TestSanitizeRichText_AllowedTags はリッチテキスト用の許可タグが通過することを検証する。
func TestSanitizeRichText_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>キャンペーン概要</p>",
			wantContains: []string{"<p>キャンペーン概要</p>"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>投稿2回以上</li><li>ハッシュタグ必須</li></ul>",
			wantContains: []string{"<ul>", "<li>", "投稿2回以上", "ハッシュタグ必須"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>報酬</strong>は<em>成果連動</em>です",
			wantContains: []string{"<strong>報酬</strong>", "<em>成果連動</em>"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com/brand">ブランドサイト</a>`,
			wantContains: []string{"<a", "https://example.com/brand", "ブランドサイト"},
		},
		{
			name:         "imgタグがhttps srcで許可される",
			input:        `<img src="https://example.com/product.png" alt="商品画像">`,
			wantContains: []string{"<img", "https://example.com/product.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeRichText(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeRichText(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitizeRichText_ForbiddenContent は危険なタグ・属性が除去されることを検証する。
func TestSanitizeRichText_ForbiddenContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれてはいけない部分文字列
		wantNotContains []string
	}{
		{
			name:            "scriptタグを除去する",
			input:           `<p>説明</p><script>alert("xss")</script>`,
			wantNotContains: []string{"<script", "alert"},
		},
		{
			name:            "iframeタグを除去する",
			input:           `<iframe src="https://evil.example.com"></iframe>`,
			wantNotContains: []string{"<iframe", "evil.example.com"},
		},
		{
			name:            "styleタグを除去する",
			input:           `<style>body { display: none }</style><p>本文</p>`,
			wantNotContains: []string{"<style", "display"},
		},
		{
			name:            "onclickイベント属性を除去する",
			input:           `<p onclick="steal()">クリック</p>`,
			wantNotContains: []string{"onclick", "steal"},
		},
		{
			name:            "http srcのimgを除去する",
			input:           `<img src="http://example.com/insecure.png">`,
			wantNotContains: []string{"http://example.com/insecure.png"},
		},
		{
			name:            "javascript hrefを除去する",
			input:           `<a href="javascript:alert(1)">リンク</a>`,
			wantNotContains: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeRichText(tt.input)
			for _, notWant := range tt.wantNotContains {
				if strings.Contains(got, notWant) {
					t.Errorf("SanitizeRichText(%q) = %q, expected NOT to contain %q", tt.input, got, notWant)
				}
			}
		})
	}
}

// TestSanitizeRichText_LinkHardening はaタグにtarget/relが付与されることを検証する。
func TestSanitizeRichText_LinkHardening(t *testing.T) {
	sanitizer := NewContentSanitizer()
	got := sanitizer.SanitizeRichText(`<a href="https://example.com">リンク</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("expected target=\"_blank\" in %q", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("expected rel noopener noreferrer in %q", got)
	}
}
