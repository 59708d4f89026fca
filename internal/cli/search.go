package cli

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/liliang-cn/smartsearch/internal/backend"
	"github.com/liliang-cn/smartsearch/internal/domain"
	"github.com/liliang-cn/smartsearch/internal/service"
)

var searchOpts struct {
	limit     int
	maxPrice  float64
	minRating float64
	asJSON    bool
}

// searchCmd is the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "run a one-shot product search",
	Example: `  $ smartsearchctl search "dish racks" --max-price 500
  $ smartsearchctl search sandals --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchOpts.limit, "limit", "n", 0, "maximum number of products")
	searchCmd.Flags().Float64Var(&searchOpts.maxPrice, "max-price", 0, "only products at or below this price")
	searchCmd.Flags().Float64Var(&searchOpts.minRating, "min-rating", 0, "only products rated at least this")
	searchCmd.Flags().BoolVar(&searchOpts.asJSON, "json", false, "print the raw response as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	req := domain.SearchRequest{
		Query: strings.Join(args, " "),
		Limit: searchOpts.limit,
	}
	if cmd.Flags().Changed("max-price") {
		v := searchOpts.maxPrice
		req.MaxPrice = &v
	}
	if cmd.Flags().Changed("min-rating") {
		v := searchOpts.minRating
		req.MinRating = &v
	}

	client, err := backend.NewSearchClient(cfg.Backend.APIURL, cfg.Backend.RequestTimeout, logger)
	if err != nil {
		return err
	}
	svc := service.NewSearchService(client, nil, 0, logger)

	resp, err := svc.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchOpts.asJSON {
		data, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		writeSearchResponse(out, resp)
	}

	if resp.Status != domain.SearchStatusSuccess {
		return fmt.Errorf("search failed: %s", resp.Message)
	}
	return nil
}
