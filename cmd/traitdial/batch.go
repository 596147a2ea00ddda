package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/platform/shutdown"
	"github.com/yungbote/traitdial/internal/recommend"
)

const defaultBatchConcurrency = 4

type batchItem struct {
	ID       string `yaml:"id"`
	Scenario string `yaml:"scenario"`
	PDFURL   string `yaml:"pdfUrl"`
	Debug    bool   `yaml:"debug"`
}

type batchFile struct {
	Scenarios []batchItem `yaml:"scenarios"`
}

type batchError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Snippet string `json:"snippet,omitempty"`
}

type batchLine struct {
	Index  int                 `json:"index"`
	ID     string              `json:"id,omitempty"`
	Result *recommend.Response `json:"result,omitempty"`
	Error  *batchError         `json:"error,omitempty"`
}

type scenarioRunner interface {
	Recommend(ctx context.Context, req recommend.ScenarioRequest) (recommend.Response, error)
}

func newBatchCmd(load appLoader) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run every scenario in a YAML file and print one JSON line per scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			items, err := parseBatch(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			ctx, stop := shutdown.NotifyContext(cmd.Context())
			defer stop()

			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := runBatch(ctx, a.Services.Recommend, items, concurrency)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), lines)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultBatchConcurrency, "scenarios in flight at once")
	return cmd
}

// parseBatch accepts either {scenarios: [...]} or a bare list.
func parseBatch(raw []byte) ([]batchItem, error) {
	var doc batchFile
	if err := yaml.Unmarshal(raw, &doc); err == nil && len(doc.Scenarios) > 0 {
		return doc.Scenarios, nil
	}
	var items []batchItem
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no scenarios found")
	}
	return items, nil
}

// runBatch never aborts on a per-item failure; those are reported in the
// item's line. Only context cancellation stops the batch.
func runBatch(ctx context.Context, runner scenarioRunner, items []batchItem, concurrency int) ([]batchLine, error) {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	lines := make([]batchLine, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			line := batchLine{Index: i, ID: item.ID}
			resp, err := runner.Recommend(gctx, recommend.ScenarioRequest{
				Scenario: item.Scenario,
				PDFURL:   item.PDFURL,
				Debug:    item.Debug,
			})
			if err != nil {
				ae := apierr.From(err)
				line.Error = &batchError{Status: ae.Status, Code: ae.Code, Message: ae.Error(), Snippet: ae.Snippet}
			} else {
				line.Result = &resp
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

func writeLines(w io.Writer, lines []batchLine) error {
	enc := json.NewEncoder(w)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
