package middleware

import (
	"context"
	"net/http"
)

// localeContextKey はリクエストコンテキストにロケールを格納するためのキー。
var localeContextKey = contextKey("locale")

// LocaleMatcher はリクエストからのロケール解決インターフェース。
// i18n.Catalogの部分集合として定義する。
type LocaleMatcher interface {
	MatchLocale(langParam, acceptLanguage string) string
	DefaultLocale() string
}

// NewLocaleMiddleware はリクエストのロケールを解決してコンテキストに注入する
// ミドルウェアを返す。langクエリパラメータがAccept-Languageヘッダーより優先される。
func NewLocaleMiddleware(matcher LocaleMatcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := matcher.MatchLocale(
				r.URL.Query().Get("lang"),
				r.Header.Get("Accept-Language"),
			)
			ctx := context.WithValue(r.Context(), localeContextKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext はリクエストコンテキストからロケールを取得する。
// ロケールミドルウェアを通過していない場合は空文字を返す。
func LocaleFromContext(ctx context.Context) string {
	locale, _ := ctx.Value(localeContextKey).(string)
	return locale
}

// ContextWithLocale はコンテキストにロケールを注入する。テスト用。
func ContextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey, locale)
}
