package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dbravo/ad-intel/internal/models"
)

// csvHeader is the stable column order of the CSV export.
var csvHeader = []string{
	"ad_id", "platform", "brand_name", "headline", "ad_format", "cta_type",
	"impressions", "clicks", "conversions", "spend", "ctr",
	"performance_score", "roi", "collected_at",
}

// WriteJSON serializes the full collection result, indented for humans.
func WriteJSON(w io.Writer, result *models.CollectResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteCSV exports one row per scored ad.
func WriteCSV(w io.Writer, ads []models.ScoredAd) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, ad := range ads {
		format := ""
		if cls, ok := ad.Classifications["ad_format"]; ok {
			format = cls.Label
		}
		ctaType := ""
		if ad.Features != nil {
			ctaType = ad.Features.CallToActionType
		}

		row := []string{
			ad.AdID,
			string(ad.Platform),
			ad.BrandName,
			ad.Headline,
			format,
			ctaType,
			strconv.Itoa(ad.Metrics.Impressions),
			strconv.Itoa(ad.Metrics.Clicks),
			strconv.Itoa(ad.Metrics.Conversions),
			strconv.FormatFloat(ad.Metrics.Spend, 'f', 2, 64),
			strconv.FormatFloat(ad.Metrics.CTR(), 'f', 4, 64),
			strconv.FormatFloat(ad.PerformanceScore, 'f', 2, 64),
			strconv.FormatFloat(ad.ROI, 'f', 2, 64),
			ad.CollectedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderSummary prints the run's headline numbers and the scored ads as a
// terminal table, best performers first.
func RenderSummary(w io.Writer, result *models.CollectResult) {
	s := result.Analysis.Summary
	fmt.Fprintf(w, "Collected %d ads (%d dropped), avg score %.1f, median %.1f, avg ROI %.2f\n",
		result.TotalCollected, result.DroppedRecords, s.AverageScore, s.MedianScore, s.AverageROI)
	if result.Truncated {
		fmt.Fprintln(w, "NOTE: the source became unavailable mid-run; results are partial")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Ad ID", "Brand", "Format", "Score", "ROI", "Spend", "CTR"})

	ranked := make([]models.ScoredAd, len(result.Ads))
	copy(ranked, result.Ads)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].PerformanceScore > ranked[j].PerformanceScore
	})
	for _, ad := range ranked {
		format := ""
		if cls, ok := ad.Classifications["ad_format"]; ok {
			format = cls.Label
		}
		t.AppendRow(table.Row{
			ad.AdID, ad.BrandName, format,
			fmt.Sprintf("%.1f", ad.PerformanceScore),
			fmt.Sprintf("%.2f", ad.ROI),
			fmt.Sprintf("$%.0f", ad.Metrics.Spend),
			fmt.Sprintf("%.2f%%", ad.Metrics.CTR()*100),
		})
	}
	t.Render()

	for _, alert := range result.Analysis.Insights.Alerts {
		fmt.Fprintf(w, "ALERT: %s\n", alert)
	}
	for _, rec := range result.Analysis.Insights.Recommendations {
		fmt.Fprintf(w, "SUGGESTION: %s\n", rec)
	}
}

// Save writes the JSON and CSV reports into dir, named by run timestamp,
// and returns the written paths.
func Save(dir string, result *models.CollectResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	stamp := result.Timestamp.Format("20060102_150405")

	jsonPath := filepath.Join(dir, fmt.Sprintf("report_%s.json", stamp))
	jf, err := os.Create(jsonPath)
	if err != nil {
		return nil, err
	}
	if err := WriteJSON(jf, result); err != nil {
		jf.Close()
		return nil, err
	}
	if err := jf.Close(); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("ads_%s.csv", stamp))
	cf, err := os.Create(csvPath)
	if err != nil {
		return nil, err
	}
	if err := WriteCSV(cf, result.Ads); err != nil {
		cf.Close()
		return nil, err
	}
	if err := cf.Close(); err != nil {
		return nil, err
	}

	return []string{jsonPath, csvPath}, nil
}
