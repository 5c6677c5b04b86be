package cmd

import (
	"fmt"
	"os"

	"github.com/spigell/cv-refiner/internal/cvconfig"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or create CV config files",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective CV config with defaults applied",
		Run: func(cmd *cobra.Command, _ []string) {
			logger, _ := setup()

			cfg, err := loadCVConfig(cmd)
			if err != nil {
				logger.Fatal("loading cv config", zap.Error(err))
			}

			out, err := cfg.YAML()
			if err != nil {
				logger.Fatal("rendering cv config", zap.Error(err))
			}
			fmt.Print(out)
		},
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a starter CV config file",
		Run: func(cmd *cobra.Command, _ []string) {
			logger, _ := setup()

			pageLimit, _ := cmd.Flags().GetInt("page-limit")
			tmpl, err := cvconfig.Template(pageLimit)
			if err != nil {
				logger.Fatal("rendering template", zap.Error(err))
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				fmt.Print(tmpl)
				return
			}
			if _, err := os.Stat(out); err == nil {
				logger.Fatal("refusing to overwrite an existing file", zap.String("path", out))
			}
			if err := os.WriteFile(out, []byte(tmpl), 0o644); err != nil {
				logger.Fatal("writing cv config", zap.Error(err))
			}
			logger.Info("cv config written", zap.String("path", out))
		},
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)

	configShowCmd.Flags().String("cv-config", "", "markdown file with the CV config in its front matter")
	configShowCmd.Flags().Int("page-limit", 1, "page limit used when no CV config is given")

	configInitCmd.Flags().Int("page-limit", 1, "page limit of the starter config")
	configInitCmd.Flags().StringP("out", "o", "", "file to write (default stdout)")
}
