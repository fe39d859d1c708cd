package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

var recommendMax int

var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Print recommendations for one query as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		return recommendOnce(cmd.Context(), cfg, logger, strings.Join(args, " "), recommendMax, cmd.OutOrStdout())
	},
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendMax, "max-results", "n", 0, "number of recommendations (default is recommend.default_max_results)")
	rootCmd.AddCommand(recommendCmd)
}

// cliItem is one printed recommendation.
type cliItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	TestTypes []string `json:"test_type"`
	Duration  int      `json:"duration"`
	Score     float64  `json:"score"`
	Rationale string   `json:"rationale,omitempty"`
}

type cliOutput struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Source     string    `json:"source"`
	Candidates int       `json:"candidates"`
	Items      []cliItem `json:"recommendations"`
}

func recommendOnce(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
	query string, maxResults int, out io.Writer,
) error {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	eng, err := loadEngine(cfg, logger)
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, eng, logger)
	if err != nil {
		return err
	}
	defer app.close()

	if maxResults == 0 {
		maxResults = cfg.Recommend.DefaultMaxResults
	}
	req, err := recommendation.NewRequest(query, maxResults, app.recommend.Ceiling())
	if err != nil {
		return err //nolint:wrapcheck // ErrInvalidRequest carries the reason
	}

	resp, err := app.recommend.Recommend(ctx, req)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	result := cliOutput{
		ID:         resp.ID,
		Query:      query,
		Source:     string(resp.Source),
		Candidates: resp.Candidates,
		Items:      make([]cliItem, 0, len(resp.Items)),
	}
	for _, it := range resp.Items {
		result.Items = append(result.Items, cliItem{
			ID:        it.Record.ID(),
			Name:      it.Record.Name(),
			URL:       it.Record.URL(),
			TestTypes: it.Record.TestTypes(),
			Duration:  it.Record.DurationMinutes(),
			Score:     it.Score,
			Rationale: it.Rationale,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
