package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/brandlink/internal/model"
)

// PostgresSocialPostRepo はPostgreSQLを使用したソーシャル投稿リポジトリ。
type PostgresSocialPostRepo struct {
	db *sql.DB
}

// NewPostgresSocialPostRepo はPostgresSocialPostRepoを生成する。
func NewPostgresSocialPostRepo(db *sql.DB) *PostgresSocialPostRepo {
	return &PostgresSocialPostRepo{db: db}
}

// ReplaceForSource は指定プロフィール・ソースの投稿を同一トランザクションで洗い替えする。
// フェッチごとに最新N件へ置き換えるため、差分更新ではなくDELETE + INSERTで単純化している。
func (r *PostgresSocialPostRepo) ReplaceForSource(ctx context.Context, profileID, source string, posts []*model.SocialPost) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM social_posts WHERE profile_id = $1 AND source = $2`,
		profileID, source,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old social posts: %w", err)
	}

	for _, post := range posts {
		var publishedAt sql.NullTime
		if !post.PublishedAt.IsZero() {
			publishedAt = sql.NullTime{Time: post.PublishedAt, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO social_posts (id, profile_id, source, title, url, summary, published_at, fetched_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (profile_id, source, url) DO NOTHING`,
			post.ID, post.ProfileID, post.Source, post.Title, post.URL,
			post.Summary, publishedAt, post.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert social post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByProfileID は指定プロフィールの投稿をpublished_at降順で返す。
func (r *PostgresSocialPostRepo) ListByProfileID(ctx context.Context, profileID string, limit int) ([]*model.SocialPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, source, title, url, summary, published_at, fetched_at
		 FROM social_posts
		 WHERE profile_id = $1
		 ORDER BY published_at DESC NULLS LAST
		 LIMIT $2`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list social posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.SocialPost
	for rows.Next() {
		post := &model.SocialPost{}
		var publishedAt sql.NullTime
		err := rows.Scan(
			&post.ID, &post.ProfileID, &post.Source, &post.Title,
			&post.URL, &post.Summary, &publishedAt, &post.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan social post: %w", err)
		}
		if publishedAt.Valid {
			post.PublishedAt = publishedAt.Time
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate social posts: %w", err)
	}

	return posts, nil
}

// compile-time interface check
var _ SocialPostRepository = (*PostgresSocialPostRepo)(nil)
