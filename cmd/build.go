package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/builder"
	"github.com/spigell/cv-refiner/internal/changes"
	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/cvconfig"
	"github.com/spigell/cv-refiner/internal/review"
	"github.com/spigell/cv-refiner/internal/tailoring"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reportTimeFormat = "20060102_150405"

var (
	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Shrink a CV to its page limit by removing, condensing and rewording content",
		Run: func(cmd *cobra.Command, _ []string) {
			build(cmd, modeOptimize)
		},
	}

	tailorCmd = &cobra.Command{
		Use:   "tailor",
		Short: "Rewrite a CV with a model using project READMEs as context",
		Run: func(cmd *cobra.Command, _ []string) {
			build(cmd, modeTailor)
		},
	}

	enhanceCmd = &cobra.Command{
		Use:   "enhance",
		Short: "Optimize a CV for its page limit and then tailor it with a model",
		Run: func(cmd *cobra.Command, _ []string) {
			build(cmd, modeEnhance)
		},
	}
)

type buildMode string

const (
	modeOptimize buildMode = "optimization"
	modeTailor   buildMode = "tailoring"
	modeEnhance  buildMode = "enhancement"
)

func init() {
	for _, c := range []*cobra.Command{optimizeCmd, tailorCmd, enhanceCmd} {
		rootCmd.AddCommand(c)

		c.Flags().String("cv", "", "path to the CV JSON file")
		c.Flags().StringP("out", "o", "", "where to write the resulting CV (default <cv>.<mode>.json)")
		c.Flags().String("cv-config", "", "markdown file with the CV config in its front matter")
		c.Flags().Int("page-limit", 1, "page limit used when no CV config is given")
		c.Flags().BoolP("interactive", "i", false, "review the changes before saving")
		c.Flags().String("changes-dir", "", "directory for change reports (default from config)")
		_ = c.MarkFlagRequired("cv")
	}

	optimizeCmd.Flags().Int("current-pages", builder.DefaultCurrentPages, "estimated current page count of the CV")

	for _, c := range []*cobra.Command{tailorCmd, enhanceCmd} {
		c.Flags().StringSlice("readme", nil, "README file or directory of *.md files; repeatable")
		c.Flags().String("guidance", "", "optional tailoring guidance")
	}
}

func build(cmd *cobra.Command, mode buildMode) {
	ctx := context.Background()
	logger, config := setup()

	cvPath, _ := cmd.Flags().GetString("cv")
	doc, err := cv.Load(cvPath)
	if err != nil {
		logger.Fatal("loading cv", zap.Error(err))
	}
	if err := doc.Validate(); err != nil {
		logger.Warn("cv is incomplete", zap.Error(err))
	}

	cvConfig, err := loadCVConfig(cmd)
	if err != nil {
		logger.Fatal("loading cv config", zap.Error(err))
	}

	opts := []builder.Option{builder.WithLogger(logger)}
	if mode != modeOptimize {
		factory, err := newGeneratorFactory(ctx, config, generatorOptions{JSON: true}, logger)
		if err != nil {
			logger.Fatal("building the tailoring model", zap.Error(err))
		}
		opts = append(opts, builder.WithTailor(tailoring.New(factory(""), logger)))
	}

	b := builder.New(doc, cvConfig, opts...)

	var readmes map[string]string
	var guidance string
	if mode != modeOptimize {
		paths, _ := cmd.Flags().GetStringSlice("readme")
		readmes, err = tailoring.LoadReadmes(paths...)
		if err != nil {
			logger.Fatal("loading readmes", zap.Error(err))
		}
		guidance, _ = cmd.Flags().GetString("guidance")
		logger.Info("tailoring context loaded", zap.Int("readmes", len(readmes)))
	}

	var res *builder.Result
	switch mode {
	case modeOptimize:
		pages, _ := cmd.Flags().GetInt("current-pages")
		res, err = b.OptimizeForPageLimit(ctx, pages)
	case modeTailor:
		res, err = b.TailorWithAI(ctx, readmes, guidance)
	case modeEnhance:
		res, err = b.OptimizeAndTailor(ctx, readmes, guidance)
	}
	if err != nil {
		logger.Fatal(string(mode)+" failed", zap.Error(err))
	}

	result := res.CV
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		outcome, err := b.Review(ctx, res.CV, res.Report, review.New())
		if err != nil {
			logger.Fatal("reviewing changes", zap.Error(err))
		}
		if outcome.State == builder.StateSteering {
			logger.Info("steering instructions saved with the report; rerun with --guidance to apply them",
				zap.String("steering", outcome.Steering))
		}
		result = outcome.CV
	} else if err := review.RenderSummary(os.Stdout, res.Report); err != nil {
		logger.Warn("printing summary", zap.Error(err))
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = defaultOutput(cvPath, mode)
	}
	if err := result.Save(out); err != nil {
		logger.Fatal("saving cv", zap.Error(err))
	}

	files, err := saveReport(cmd, config, res.Report, string(mode))
	if err != nil {
		logger.Fatal("saving change report", zap.Error(err))
	}

	logger.Info(string(mode)+" finished",
		zap.String("cv", out),
		zap.Strings("reports", files),
		zap.Int("words_before", doc.WordCount()),
		zap.Int("words_after", result.WordCount()),
	)
}

func loadCVConfig(cmd *cobra.Command) (*cvconfig.Config, error) {
	path, _ := cmd.Flags().GetString("cv-config")
	if path == "" {
		pageLimit, _ := cmd.Flags().GetInt("page-limit")
		return cvconfig.Default(pageLimit), nil
	}
	return cvconfig.Load(path)
}

func saveReport(cmd *cobra.Command, config *Config, report *changes.Report, prefix string) ([]string, error) {
	dir, _ := cmd.Flags().GetString("changes-dir")
	if dir == "" {
		dir = config.ChangesDir
	}
	return report.Save(dir, fmt.Sprintf("%s_%s", prefix, time.Now().Format(reportTimeFormat)))
}

func defaultOutput(cvPath string, mode buildMode) string {
	return fmt.Sprintf("%s.%s.json", strings.TrimSuffix(cvPath, ".json"), mode)
}
