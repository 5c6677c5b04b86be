package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spigell/cv-refiner/internal/consensus"
	"github.com/spigell/cv-refiner/internal/ingest"
	"github.com/spigell/cv-refiner/internal/judge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Score a CV against a job description with an ensemble of model judges",
	Run: func(cmd *cobra.Command, _ []string) {
		runJudge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(judgeCmd)

	judgeCmd.Flags().String("cv", "", "CV file (.json, .md or .txt)")
	judgeCmd.Flags().String("jd", "", "job description file or URL")
	judgeCmd.Flags().String("guidance", "", "extra instructions passed to every judge")
	judgeCmd.Flags().StringP("out", "o", "", "also write the final report as JSON to this file")
	_ = judgeCmd.MarkFlagRequired("cv")
	_ = judgeCmd.MarkFlagRequired("jd")
}

func runJudge(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	if err := config.Judges.Validate(); err != nil {
		logger.Fatal("invalid judges config", zap.Error(err))
	}

	loader := ingest.New(logger)

	cvPath, _ := cmd.Flags().GetString("cv")
	cvText, err := loader.Load(ctx, cvPath)
	if err != nil {
		logger.Fatal("loading cv", zap.Error(err))
	}

	jdSource, _ := cmd.Flags().GetString("jd")
	jd, err := loader.Load(ctx, jdSource)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}
	logger.Info("job description loaded", zap.String("kind", jd.Kind), zap.Int("chars", len(jd.Text)))

	temperature := config.Judge.Temperature
	factory, err := newGeneratorFactory(ctx, config, generatorOptions{JSON: true, Temperature: &temperature}, logger)
	if err != nil {
		logger.Fatal("building judge models", zap.Error(err))
	}

	evaluators := make(map[string]judge.Evaluator, len(config.Judges))
	for _, model := range config.Judges {
		evaluators[model.Key] = judge.NewLLMJudge(model, factory(model.ID), logger)
	}

	orchestrator, err := judge.NewOrchestrator(config.Judges, evaluators,
		judge.WithMaxAttempts(config.Judge.MaxRetries),
		judge.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("creating judge orchestrator", zap.Error(err))
	}

	guidance, _ := cmd.Flags().GetString("guidance")
	ensemble, err := orchestrator.RunEnsemble(ctx, judge.AnalysisContext{
		CVText:   cvText.Text,
		JDText:   jd.Text,
		Guidance: guidance,
	})
	if err != nil {
		logger.Fatal("running judges", zap.Error(err))
	}

	aggregator := consensus.New(config.Judges)
	report := aggregator.Aggregate(ensemble.Evaluations)
	report.EnsembleID = ensemble.ID

	if err := aggregator.Render(os.Stdout, report); err != nil {
		logger.Warn("printing report", zap.Error(err))
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatal("encoding report", zap.Error(err))
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			logger.Fatal("saving report", zap.Error(err))
		}
		logger.Info("report saved", zap.String("path", out))
	}
}
