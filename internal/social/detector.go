// Package social はインフルエンサーのソーシャルリンクから最新投稿を
// 取得するためのフィード検出機能を提供する。
package social

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// FeedCandidate はHTMLから検出されたフィード候補を表す。
type FeedCandidate struct {
	URL   string
	Atom  bool
	Title string
}

// FeedDetector はソーシャルリンク先ページからのフィード自動検出を提供する。
// ブログ・noteなどのリンク先はRSS/Atomフィードを<link rel="alternate">で
// 公開していることが多く、これを投稿プレビューのソースとして使用する。
type FeedDetector struct{}

// NewFeedDetector はFeedDetectorの新しいインスタンスを生成する。
func NewFeedDetector() *FeedDetector {
	return &FeedDetector{}
}

// feedContentTypes はフィードとして認識するContent-Typeのリスト。
var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

// xmlContentTypes はXMLとして認識するContent-Type（ボディ解析が必要）。
var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// IsDirectFeed はContent-Typeとボディを解析して、
// レスポンスがRSS/Atomフィードそのものかどうかを判定する。
// ソーシャルリンクにフィードURLが直接登録されているケースに対応する。
func (d *FeedDetector) IsDirectFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	for _, feedCT := range feedContentTypes {
		if mediaType == feedCT {
			return true
		}
	}

	// 汎用XML Content-Typeの場合はボディ解析で判定する
	isXML := false
	for _, xmlCT := range xmlContentTypes {
		if mediaType == xmlCT {
			isXML = true
			break
		}
	}
	if !isXML || len(body) == 0 {
		return false
	}

	return isRSSOrAtomXML(body)
}

// isRSSOrAtomXML はXMLボディの先頭部分を解析してRSS/Atomフィードかを判定する。
func isRSSOrAtomXML(body []byte) bool {
	// 先頭4KBを検査（XMLプロローグ + ルート要素が含まれるのに十分）
	checkSize := 4096
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(body[:checkSize]))

	if strings.Contains(prefix, "<rss") {
		return true
	}
	if strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	if strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom") {
		return true
	}
	return false
}

// DiscoverFeedURL はHTMLのheadからRSS/Atomフィードリンクを検出し、
// 最適な1件の絶対URLを返す。見つからない場合は空文字を返す。
// 優先順位: 同一ホスト > Atom > 記述順。
func (d *FeedDetector) DiscoverFeedURL(htmlBody []byte, baseURL string) string {
	candidates := d.parseFeedLinks(htmlBody, baseURL)
	best := selectBestCandidate(candidates, baseURL)
	if best == nil {
		return ""
	}
	return best.URL
}

// parseFeedLinks はHTMLのheadタグから<link rel="alternate">のフィード候補を収集する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
func (d *FeedDetector) parseFeedLinks(htmlBody []byte, baseURL string) []FeedCandidate {
	var candidates []FeedCandidate

	baseU, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}
			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return candidates
			}
			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			var rel, linkType, href, title string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				case "title":
					title = string(val)
				}
				if !more {
					break
				}
			}

			if rel != "alternate" || href == "" {
				continue
			}

			var atom bool
			switch linkType {
			case "application/rss+xml":
				atom = false
			case "application/atom+xml":
				atom = true
			default:
				continue
			}

			resolved := resolveURL(baseU, href)
			if resolved == "" {
				continue
			}

			candidates = append(candidates, FeedCandidate{
				URL:   resolved,
				Atom:  atom,
				Title: title,
			})

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return candidates
			}
		}
	}
}

// selectBestCandidate は候補から優先順位に従って最適なフィードを選択する。
// スコアリング: 同一ホスト(+100) + Atom(+10)、同スコアは記述順優先。
func selectBestCandidate(candidates []FeedCandidate, inputURL string) *FeedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	inputHost := extractHost(inputURL)
	bestIdx := 0
	bestScore := -1

	for i, c := range candidates {
		score := 0
		if extractHost(c.URL) == inputHost {
			score += 100
		}
		if c.Atom {
			score += 10
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return &candidates[bestIdx]
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// extractHost はURLからホスト名を取り出す。解析できない場合は空文字を返す。
func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
