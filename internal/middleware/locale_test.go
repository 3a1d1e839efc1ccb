package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- モック定義 ---

type mockLocaleMatcher struct {
	matchLocaleFn func(langParam, acceptLanguage string) string
}

func (m *mockLocaleMatcher) MatchLocale(langParam, acceptLanguage string) string {
	if m.matchLocaleFn != nil {
		return m.matchLocaleFn(langParam, acceptLanguage)
	}
	return "en"
}

func (m *mockLocaleMatcher) DefaultLocale() string {
	return "en"
}

// --- テスト ---

func TestLocaleMiddleware_InjectsResolvedLocale(t *testing.T) {
	matcher := &mockLocaleMatcher{
		matchLocaleFn: func(langParam, acceptLanguage string) string {
			return "ja"
		},
	}

	mw := NewLocaleMiddleware(matcher)

	var capturedLocale string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedLocale = LocaleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if capturedLocale != "ja" {
		t.Errorf("locale = %q, want %q", capturedLocale, "ja")
	}
}

func TestLocaleMiddleware_PassesLangParamAndAcceptLanguage(t *testing.T) {
	var gotLang, gotAccept string
	matcher := &mockLocaleMatcher{
		matchLocaleFn: func(langParam, acceptLanguage string) string {
			gotLang = langParam
			gotAccept = acceptLanguage
			return "ko"
		},
	}

	mw := NewLocaleMiddleware(matcher)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profiles?lang=ko", nil)
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if gotLang != "ko" {
		t.Errorf("langParam = %q, want %q", gotLang, "ko")
	}
	if gotAccept != "ja-JP,ja;q=0.9" {
		t.Errorf("acceptLanguage = %q, want %q", gotAccept, "ja-JP,ja;q=0.9")
	}
}

func TestLocaleFromContext_NoValue_ReturnsEmpty(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "" {
		t.Errorf("locale = %q, want empty string", got)
	}
}

func TestLocaleFromContext_ValidValue_ReturnsLocale(t *testing.T) {
	ctx := ContextWithLocale(context.Background(), "ja")
	if got := LocaleFromContext(ctx); got != "ja" {
		t.Errorf("locale = %q, want %q", got, "ja")
	}
}
