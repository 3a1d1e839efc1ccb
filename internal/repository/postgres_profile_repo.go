package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hitoshi/brandlink/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, email, name, role, bio, website, avatar_url, social_links, verified, created_at, updated_at`

// scanProfile は1行分のプロフィールをスキャンする。
func scanProfile(row interface{ Scan(dest ...any) error }) (*model.Profile, error) {
	p := &model.Profile{}
	var socialLinks []byte
	err := row.Scan(
		&p.ID, &p.Email, &p.Name, &p.Role, &p.Bio, &p.Website,
		&p.AvatarURL, &socialLinks, &p.Verified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(socialLinks) > 0 {
		if err := json.Unmarshal(socialLinks, &p.SocialLinks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal social_links: %w", err)
		}
	}
	return p, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	return p, nil
}

// InsertIfAbsent はプロフィールをINSERT ... ON CONFLICT (id) DO NOTHINGで作成する。
// 行が実際に挿入された場合はtrueを、既存行との競合でスキップされた場合はfalseを返す。
// 同一ユーザーの同時コールバックに対する原子的な存在保証はidのPRIMARY KEY制約が与える。
func (r *PostgresProfileRepo) InsertIfAbsent(ctx context.Context, profile *model.Profile) (bool, error) {
	socialLinks := profile.SocialLinks
	if socialLinks == nil {
		socialLinks = map[string]string{}
	}
	linksJSON, err := json.Marshal(socialLinks)
	if err != nil {
		return false, fmt.Errorf("failed to marshal social_links: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, name, role, bio, website, avatar_url, social_links, verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		profile.ID, profile.Email, profile.Name, profile.Role, profile.Bio,
		profile.Website, profile.AvatarURL, linksJSON, profile.Verified,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// UpdateByID はプロフィールを部分更新し、更新後の行を返す。
// patchのnilフィールドはCOALESCEにより既存値を維持する。行が存在しない場合はnilを返す。
func (r *PostgresProfileRepo) UpdateByID(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error) {
	var linksJSON []byte
	if patch.SocialLinks != nil {
		b, err := json.Marshal(patch.SocialLinks)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal social_links: %w", err)
		}
		linksJSON = b
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE profiles SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			website = COALESCE($4, website),
			avatar_url = COALESCE($5, avatar_url),
			social_links = COALESCE($6, social_links),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, patch.Name, patch.Bio, patch.Website, patch.AvatarURL, linksJSON,
	)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return p, nil
}

// List は等値フィルタを適用したプロフィール一覧をcreated_at降順で返す。
// roleフィルタはenum検証せず、未知の値はそのまま等値条件として通す（結果0件）。
func (r *PostgresProfileRepo) List(ctx context.Context, filter model.ProfileFilter) ([]*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var conditions []string
	var args []any

	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, `role = $`+strconv.Itoa(len(args)))
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		conditions = append(conditions, `verified = $`+strconv.Itoa(len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// ListWithSocialLinks はsocial_linksが空でないプロフィールを返す。
func (r *PostgresProfileRepo) ListWithSocialLinks(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE social_links != '{}'::jsonb ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles with social links: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
