package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/hitoshi/brandlink/internal/model"
	"github.com/hitoshi/brandlink/internal/repository"
	"github.com/hitoshi/brandlink/internal/social"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Sanitizer は投稿コンテンツのサニタイズインターフェース。
type Sanitizer interface {
	SanitizeText(raw string) string
}

// FetchMetrics はフェッチ処理のメトリクス記録インターフェース。nil可。
type FetchMetrics interface {
	IncSocialFetchSuccess()
	IncSocialFetchFailure()
}

// maxSummaryLength は投稿サマリーの最大文字数（rune単位）。
const maxSummaryLength = 500

// Fetcher は個別プロフィールのソーシャルリンクから最新投稿を取得する。
// リンク先がフィードそのものであれば直接パースし、HTMLページであれば
// <link rel="alternate">からフィードを自動検出してパースする。
// 取得した投稿はソース単位で洗い替え保存される。
type Fetcher struct {
	postRepo       repository.SocialPostRepository
	detector       *social.FeedDetector
	sanitizer      Sanitizer
	ssrfGuard      SSRFValidator
	limiter        *rate.Limiter
	metrics        FetchMetrics
	logger         *slog.Logger
	timeout        time.Duration
	maxBodySize    int64
	postsPerSource int
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// limiterは外部サイトへのリクエスト全体に適用されるレートリミッタ。
func NewFetcher(
	postRepo repository.SocialPostRepository,
	detector *social.FeedDetector,
	sanitizer Sanitizer,
	ssrfGuard SSRFValidator,
	limiter *rate.Limiter,
	metrics FetchMetrics,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
	postsPerSource int,
) *Fetcher {
	if postsPerSource <= 0 {
		postsPerSource = 5
	}
	return &Fetcher{
		postRepo:       postRepo,
		detector:       detector,
		sanitizer:      sanitizer,
		ssrfGuard:      ssrfGuard,
		limiter:        limiter,
		metrics:        metrics,
		logger:         logger,
		timeout:        timeout,
		maxBodySize:    maxBodySize,
		postsPerSource: postsPerSource,
	}
}

// FetchProfile はプロフィールの全ソーシャルリンクの投稿を取得する。
// 個別ソースの失敗はログに記録して継続し、エラーとして返さない。
func (f *Fetcher) FetchProfile(ctx context.Context, profile *model.Profile) {
	for source, link := range profile.SocialLinks {
		if link == "" {
			continue
		}
		if err := f.fetchSource(ctx, profile.ID, source, link); err != nil {
			if f.metrics != nil {
				f.metrics.IncSocialFetchFailure()
			}
			f.logger.Warn("ソーシャル投稿の取得に失敗しました",
				slog.String("profile_id", profile.ID),
				slog.String("source", source),
				slog.String("link", link),
				slog.String("error", err.Error()),
			)
			continue
		}
		if f.metrics != nil {
			f.metrics.IncSocialFetchSuccess()
		}
	}
}

// fetchSource は単一のソーシャルリンクから投稿を取得して保存する。
func (f *Fetcher) fetchSource(ctx context.Context, profileID, source, link string) error {
	start := time.Now()

	if err := f.ssrfGuard.ValidateURL(link); err != nil {
		return fmt.Errorf("unsafe link: %w", err)
	}

	contentType, body, err := f.get(ctx, link)
	if err != nil {
		return err
	}

	// リンク先がフィードでない場合はHTMLからフィードを自動検出する
	feedBody := body
	if !f.detector.IsDirectFeed(contentType, body) {
		feedURL := f.detector.DiscoverFeedURL(body, link)
		if feedURL == "" {
			return fmt.Errorf("no feed found at %s", link)
		}
		if err := f.ssrfGuard.ValidateURL(feedURL); err != nil {
			return fmt.Errorf("unsafe feed URL: %w", err)
		}
		_, feedBody, err = f.get(ctx, feedURL)
		if err != nil {
			return fmt.Errorf("failed to fetch discovered feed: %w", err)
		}
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(feedBody))
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := f.convertItems(profileID, source, parsedFeed.Items)
	if err := f.postRepo.ReplaceForSource(ctx, profileID, source, posts); err != nil {
		return fmt.Errorf("failed to store posts: %w", err)
	}

	f.logger.Info("ソーシャル投稿を取得しました",
		slog.String("profile_id", profileID),
		slog.String("source", source),
		slog.Int("post_count", len(posts)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// get はレートリミッタを通してHTTP GETを実行し、Content-Typeとボディを返す。
func (f *Fetcher) get(ctx context.Context, rawURL string) (string, []byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Brandlink/1.0 Social Preview")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.Header.Get("Content-Type"), body, nil
}

// convertItems はgofeedの記事を投稿プレビューに変換する。
// タイトル・サマリーはタグ除去サニタイズを適用し、サマリーは最大長に切り詰める。
func (f *Fetcher) convertItems(profileID, source string, items []*gofeed.Item) []*model.SocialPost {
	posts := make([]*model.SocialPost, 0, f.postsPerSource)
	now := time.Now()

	for _, item := range items {
		if item == nil {
			continue
		}
		if len(posts) >= f.postsPerSource {
			break
		}

		link := item.Link
		// LinkがなくGUIDがURL形式の場合はGUIDを使用
		if link == "" && (strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			link = item.GUID
		}
		if link == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		summary = truncateRunes(f.sanitizer.SanitizeText(summary), maxSummaryLength)

		post := &model.SocialPost{
			ID:        uuid.New().String(),
			ProfileID: profileID,
			Source:    source,
			Title:     f.sanitizer.SanitizeText(item.Title),
			URL:       link,
			Summary:   summary,
			FetchedAt: now,
		}

		if item.PublishedParsed != nil {
			post.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			post.PublishedAt = *item.UpdatedParsed
		}

		posts = append(posts, post)
	}

	return posts
}

// truncateRunes は文字列をrune単位で最大長に切り詰める。
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
