package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbravo/ad-intel/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AdListParams filters and pages the scored_ads listing.
type AdListParams struct {
	RunID     *uuid.UUID
	Platform  string
	Brand     string
	MediaKind string
	Query     string // substring match on headline/body
	MinScore  float64
	MaxScore  float64
	SortBy    string // "score" (default), "roi", "spend", "collected_at"
	Limit     int
	Offset    int
}

type AdListResult struct {
	Ads    []StoredAd `json:"ads"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// StoredAd is a scored ad as persisted, tagged with its run.
type StoredAd struct {
	RunID uuid.UUID `json:"run_id"`
	models.ScoredAd
}

// BrandStat is one row of the per-brand aggregation.
type BrandStat struct {
	BrandName    string  `json:"brand_name"`
	AdCount      int     `json:"ad_count"`
	AverageScore float64 `json:"average_score"`
	AverageROI   float64 `json:"average_roi"`
	TotalSpend   float64 `json:"total_spend"`
}

// Collection runs

func (s *Store) CreateRun(ctx context.Context, run *models.CollectionRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_runs (id, platform, keywords, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.Platform, run.Keywords, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run failed: %w", err)
	}
	return nil
}

func (s *Store) CompleteRun(ctx context.Context, run *models.CollectionRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE collection_runs
		SET status = $2, total_collected = $3, total_scored = $4,
		    dropped_records = $5, error = NULLIF($6, ''), completed_at = $7
		WHERE id = $1
	`, run.ID, run.Status, run.TotalCollected, run.TotalScored,
		run.DroppedRecords, run.Error, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("update run failed: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*models.CollectionRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, platform, keywords, status, total_collected, total_scored,
		       dropped_records, COALESCE(error, ''), started_at, completed_at
		FROM collection_runs WHERE id = $1
	`, id)

	run, err := scanRun(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.CollectionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, platform, keywords, status, total_collected, total_scored,
		       dropped_records, COALESCE(error, ''), started_at, completed_at
		FROM collection_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.CollectionRun{}
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scan func(dest ...any) error) (models.CollectionRun, error) {
	var run models.CollectionRun
	err := scan(
		&run.ID, &run.Platform, &run.Keywords, &run.Status,
		&run.TotalCollected, &run.TotalScored, &run.DroppedRecords,
		&run.Error, &run.StartedAt, &run.CompletedAt,
	)
	return run, err
}

// Scored ads

// SaveScoredAds upserts one run's scored batch in a single round trip.
func (s *Store) SaveScoredAds(ctx context.Context, runID uuid.UUID, ads []models.ScoredAd) error {
	batch := &pgx.Batch{}
	for _, ad := range ads {
		features, err := json.Marshal(ad.Features)
		if err != nil {
			return fmt.Errorf("marshal features for ad %s: %w", ad.AdID, err)
		}
		classifications, err := json.Marshal(ad.Classifications)
		if err != nil {
			return fmt.Errorf("marshal classifications for ad %s: %w", ad.AdID, err)
		}

		batch.Queue(`
			INSERT INTO scored_ads (
				run_id, ad_id, platform, brand_name, headline, body_text,
				call_to_action, source_url, media_kind,
				impressions, clicks, conversions, spend,
				performance_score, roi, features, classifications,
				collected_at, analyzed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			ON CONFLICT (run_id, ad_id) DO UPDATE SET
				performance_score = EXCLUDED.performance_score,
				roi = EXCLUDED.roi,
				features = EXCLUDED.features,
				classifications = EXCLUDED.classifications,
				analyzed_at = EXCLUDED.analyzed_at
		`,
			runID, ad.AdID, ad.Platform, ad.BrandName, ad.Headline, ad.BodyText,
			ad.CallToAction, ad.SourceURL, ad.MediaKind,
			ad.Metrics.Impressions, ad.Metrics.Clicks, ad.Metrics.Conversions, ad.Metrics.Spend,
			ad.PerformanceScore, ad.ROI, features, classifications,
			ad.CollectedAt, ad.AnalyzedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ads {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed: %w", err)
		}
	}
	return nil
}

// buildAdFilter turns AdListParams into a WHERE clause and its arguments.
// Kept as a pure function so the SQL shape is testable without a database.
func buildAdFilter(params AdListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.RunID != nil {
		where += fmt.Sprintf(" AND run_id = $%d", argIdx)
		args = append(args, *params.RunID)
		argIdx++
	}
	if params.Platform != "" {
		where += fmt.Sprintf(" AND platform = $%d", argIdx)
		args = append(args, params.Platform)
		argIdx++
	}
	if params.Brand != "" {
		where += fmt.Sprintf(" AND brand_name = $%d", argIdx)
		args = append(args, params.Brand)
		argIdx++
	}
	if params.MediaKind != "" {
		where += fmt.Sprintf(" AND media_kind = $%d", argIdx)
		args = append(args, params.MediaKind)
		argIdx++
	}
	if params.Query != "" {
		where += fmt.Sprintf(" AND (headline ILIKE '%%' || $%d || '%%' OR body_text ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.MinScore > 0 {
		where += fmt.Sprintf(" AND performance_score >= $%d", argIdx)
		args = append(args, params.MinScore)
		argIdx++
	}
	if params.MaxScore > 0 {
		where += fmt.Sprintf(" AND performance_score <= $%d", argIdx)
		args = append(args, params.MaxScore)
		argIdx++
	}

	return where, args
}

// adSortColumn whitelists the sortable columns.
func adSortColumn(sortBy string) string {
	switch sortBy {
	case "roi":
		return "roi DESC"
	case "spend":
		return "spend DESC"
	case "collected_at":
		return "collected_at DESC"
	default:
		return "performance_score DESC"
	}
}

func (s *Store) ListAds(ctx context.Context, params AdListParams) (*AdListResult, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where, args := buildAdFilter(params)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM scored_ads "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT run_id, ad_id, platform, brand_name, headline, body_text,
		       call_to_action, source_url, media_kind,
		       impressions, clicks, conversions, spend,
		       performance_score, roi, features, classifications,
		       collected_at, analyzed_at
		FROM scored_ads
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, adSortColumn(params.SortBy), len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	ads := []StoredAd{}
	for rows.Next() {
		ad, err := scanStoredAd(rows.Scan)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &AdListResult{Ads: ads, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func scanStoredAd(scan func(dest ...any) error) (StoredAd, error) {
	var ad StoredAd
	var brand, headline, body, cta, sourceURL, mediaKind *string
	var featuresRaw, classificationsRaw []byte
	var collectedAt, analyzedAt *time.Time

	err := scan(
		&ad.RunID, &ad.AdID, &ad.Platform, &brand, &headline, &body,
		&cta, &sourceURL, &mediaKind,
		&ad.Metrics.Impressions, &ad.Metrics.Clicks, &ad.Metrics.Conversions, &ad.Metrics.Spend,
		&ad.PerformanceScore, &ad.ROI, &featuresRaw, &classificationsRaw,
		&collectedAt, &analyzedAt,
	)
	if err != nil {
		return ad, err
	}

	if brand != nil {
		ad.BrandName = *brand
	}
	if headline != nil {
		ad.Headline = *headline
	}
	if body != nil {
		ad.BodyText = *body
	}
	if cta != nil {
		ad.CallToAction = *cta
	}
	if sourceURL != nil {
		ad.SourceURL = *sourceURL
	}
	if mediaKind != nil {
		ad.MediaKind = *mediaKind
	}
	if len(featuresRaw) > 0 {
		_ = json.Unmarshal(featuresRaw, &ad.Features)
	}
	if len(classificationsRaw) > 0 {
		_ = json.Unmarshal(classificationsRaw, &ad.Classifications)
	}
	if collectedAt != nil {
		ad.CollectedAt = *collectedAt
	}
	if analyzedAt != nil {
		ad.AnalyzedAt = *analyzedAt
	}

	return ad, nil
}

// BrandStats aggregates the scored corpus per advertiser, strongest first.
func (s *Store) BrandStats(ctx context.Context, limit int) ([]BrandStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT brand_name, COUNT(*), AVG(performance_score), AVG(roi), SUM(spend)
		FROM scored_ads
		WHERE brand_name IS NOT NULL AND brand_name <> ''
		GROUP BY brand_name
		ORDER BY AVG(performance_score) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []BrandStat{}
	for rows.Next() {
		var st BrandStat
		if err := rows.Scan(&st.BrandName, &st.AdCount, &st.AverageScore, &st.AverageROI, &st.TotalSpend); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
