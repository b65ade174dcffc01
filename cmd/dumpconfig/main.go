package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ncecere/model_directory/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts config.Options
	cmd := &cobra.Command{
		Use:          "dumpconfig",
		Short:        "Print the effective configuration with secrets masked",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Analytics.Token = maskToken(cfg.Analytics.Token)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "config file to load (defaults to directory.yaml lookup)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load before reading the environment")
	return cmd
}

func maskToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 4:
		return "****"
	default:
		return token[:4] + "****"
	}
}
