// Package main is the entry point for the deepxiv CLI: search arXiv papers,
// read their sections, and ask research questions answered by an agent that
// plans its own paper lookups.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/spf13/cobra"

	"github.com/deepxiv/deepxiv-go/appconfig"
	"github.com/deepxiv/deepxiv-go/reader"
)

// version is set at build time via ldflags.
var version = "dev"

var cfg = &appconfig.AppConfig{}

var rootCmd = &cobra.Command{
	Use:   "deepxiv",
	Short: "Search and read arXiv papers through the deepxiv paper service",
	Long: `deepxiv talks to the deepxiv paper-data service. It can search papers,
fetch their metadata and section text, answer research questions with an
LLM-driven agent that plans its own paper lookups, and serve the paper
tools over MCP for other hosts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenv.LoadEnv()

		cfgFile, _ := cmd.Flags().GetString("config")
		if cfgFile != "" {
			if err := config.LoadConfig(cfgFile, cfg); err != nil {
				return fmt.Errorf("loading config %s: %w", cfgFile, err)
			}
			return nil
		}
		if _, err := os.Stat("config.ini"); err == nil {
			if err := config.LoadConfig("config.ini", cfg); err != nil {
				return fmt.Errorf("loading config.ini: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.ini if present)")
	rootCmd.PersistentFlags().String("token", "", "paper service API token (default: $DEEPXIV_API_TOKEN)")
}

// newReader builds a paper-service client from flags, config, and env.
func newReader(cmd *cobra.Command) (*reader.Reader, error) {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("DEEPXIV_API_TOKEN")
	}
	if token == "" {
		return nil, errors.New("no API token: pass --token or set DEEPXIV_API_TOKEN")
	}

	var opts []reader.Option
	if cfg.ReaderBaseURL != "" {
		opts = append(opts, reader.WithBaseURL(cfg.ReaderBaseURL))
	}
	return reader.NewReader(token, opts...), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
