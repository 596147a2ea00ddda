package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/platform/shutdown"
	"github.com/yungbote/traitdial/internal/recommend"
)

func newRecommendCmd(load appLoader) *cobra.Command {
	var (
		pdfURL string
		debug  bool
	)
	cmd := &cobra.Command{
		Use:   "recommend <scenario>",
		Short: "Run one scenario through the pipeline and print the JSON result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := shutdown.NotifyContext(cmd.Context())
			defer stop()

			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req := recommend.ScenarioRequest{
				Scenario: strings.Join(args, " "),
				PDFURL:   pdfURL,
				Debug:    debug,
			}
			resp, err := a.Services.Recommend.Recommend(ctx, req)
			if err != nil {
				ae := apierr.From(err)
				if ae.Snippet != "" {
					return fmt.Errorf("%s (status %d): %s [snippet: %s]", ae.Code, ae.Status, ae.Error(), ae.Snippet)
				}
				return fmt.Errorf("%s (status %d): %s", ae.Code, ae.Status, ae.Error())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&pdfURL, "pdf-url", "", "reference document URL (http(s), gs://, or a Drive/Dropbox/OneDrive share link)")
	cmd.Flags().BoolVar(&debug, "debug", false, "include grounding diagnostics")
	return cmd
}
