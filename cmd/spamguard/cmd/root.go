package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/pkg/config"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/pkg/logger"
)

const serviceName = "spamguard"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Spam classification API with a replaceable model artifact",
	Long: `spamguard serves spam predictions from a gradient-boosted tree model.
Administrators replace the model at runtime; every request after a committed
upload is answered by the new model. Configuration is read from the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  cfg.IsDevelopment(),
			Service: serviceName,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
