package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/smartsearch/internal/backend"
)

// healthCmd is the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check that the backend REST API is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := backend.NewSearchClient(cfg.Backend.APIURL, cfg.Backend.RequestTimeout, logger)
		if err != nil {
			return err
		}
		if !client.Health(cmd.Context()) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s unreachable\n", cfg.Backend.APIURL)
			return errors.New("backend unreachable")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", cfg.Backend.APIURL)
		return nil
	},
}
