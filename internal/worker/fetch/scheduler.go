// Package fetch はソーシャルリンクからの投稿取得を行うバックグラウンド処理を提供する。
// スケジューラとフェッチャーを含む。
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/brandlink/internal/model"
	"github.com/hitoshi/brandlink/internal/repository"
)

// ProfileFetcher はプロフィール単位のフェッチ実行インターフェース。
type ProfileFetcher interface {
	// FetchProfile はプロフィールの全ソーシャルリンクの投稿を取得する。
	FetchProfile(ctx context.Context, profile *model.Profile)
}

// Scheduler はソーシャル投稿フェッチのスケジューリングと並列制御を行う。
// 一定間隔のティッカーでソーシャルリンクを持つプロフィールを列挙し、
// semaphoreパターンで最大並列数を制御しながらフェッチを実行する。
type Scheduler struct {
	profileRepo    repository.ProfileRepository
	fetcher        ProfileFetcher
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	profileRepo repository.ProfileRepository,
	fetcher ProfileFetcher,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		profileRepo:    profileRepo,
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ソーシャルフェッチスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("フェッチサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ソーシャルフェッチスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("フェッチサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はソーシャルリンクを持つプロフィールを1回列挙し、並列でフェッチを実行する。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	profiles, err := s.profileRepo.ListWithSocialLinks(ctx)
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		s.logger.Info("フェッチ対象のプロフィールはありません")
		return nil
	}

	s.logger.Info("フェッチサイクルを開始します",
		slog.Int("profile_count", len(profiles)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, profile := range profiles {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(p *model.Profile) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			s.fetcher.FetchProfile(ctx, p)
		}(profile)
	}

	wg.Wait()

	s.logger.Info("フェッチサイクルが完了しました",
		slog.Int("profile_count", len(profiles)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
