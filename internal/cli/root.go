package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pdfchat/config"
	"pdfchat/internal/logger"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "PDF Chat - Index PDF documents and ask questions about them",
	Long: `pdfchat indexes PDF documents into a Supabase vector store and answers
questions about them using retrieval-augmented generation.

Example usage:
  pdfchat ingest docs/*.pdf           # Index PDF documents
  pdfchat ask -q "what is the total?" # Ask a one-off question
  pdfchat chat                        # Interactive chat session`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; environment variables win either way.
		_ = godotenv.Load()

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger.SetVerbose(verbose)
		logCredentialPresence()
		return nil
	},
}

// logCredentialPresence reports which credentials are set without printing
// their values.
func logCredentialPresence() {
	for _, env := range []string{cfg.Embedding.APIKeyEnv, cfg.Store.URLEnv, cfg.Store.KeyEnv} {
		if os.Getenv(env) == "" {
			logger.Debug("startup: %s is not set", env)
		} else {
			logger.Debug("startup: %s is set", env)
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pdfchat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}
