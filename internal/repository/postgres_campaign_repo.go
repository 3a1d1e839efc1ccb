package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hitoshi/brandlink/internal/model"
)

// PostgresCampaignRepo はPostgreSQLを使用したキャンペーンリポジトリ。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

const campaignColumns = `id, brand_id, title, description, budget, category, status, deadline, created_at, updated_at`

// scanCampaign は1行分のキャンペーンをスキャンする。
func scanCampaign(row interface{ Scan(dest ...any) error }) (*model.Campaign, error) {
	c := &model.Campaign{}
	var deadline sql.NullTime
	err := row.Scan(
		&c.ID, &c.BrandID, &c.Title, &c.Description, &c.Budget,
		&c.Category, &c.Status, &deadline, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		c.Deadline = deadline.Time
	}
	return c, nil
}

// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`,
		id,
	)

	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign by ID: %w", err)
	}

	return c, nil
}

// Create はキャンペーンを作成する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) error {
	var deadline sql.NullTime
	if !campaign.Deadline.IsZero() {
		deadline = sql.NullTime{Time: campaign.Deadline, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, brand_id, title, description, budget, category, status, deadline, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		campaign.ID, campaign.BrandID, campaign.Title, campaign.Description,
		campaign.Budget, campaign.Category, campaign.Status, deadline,
		campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// UpdateByID はキャンペーンを部分更新し、更新後の行を返す。
// patchのnilフィールドはCOALESCEにより既存値を維持する。行が存在しない場合はnilを返す。
func (r *PostgresCampaignRepo) UpdateByID(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE campaigns SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			budget = COALESCE($4, budget),
			category = COALESCE($5, category),
			status = COALESCE($6, status),
			deadline = COALESCE($7, deadline),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+campaignColumns,
		id, patch.Title, patch.Description, patch.Budget, patch.Category, status, patch.Deadline,
	)

	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	return c, nil
}

// DeleteByID は指定IDのキャンペーンを削除する。
func (r *PostgresCampaignRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM campaigns WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// List は等値フィルタを適用したキャンペーン一覧をcreated_at降順で返す。
func (r *PostgresCampaignRepo) List(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	var conditions []string
	var args []any

	if filter.BrandID != "" {
		args = append(args, filter.BrandID)
		conditions = append(conditions, `brand_id = $`+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, `status = $`+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, `category = $`+strconv.Itoa(len(args)))
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
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	return campaigns, nil
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
