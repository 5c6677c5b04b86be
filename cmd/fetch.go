package cmd

import (
	"context"
	"errors"

	"github.com/spigell/cv-refiner/internal/github"
	"github.com/spigell/cv-refiner/internal/secrets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download GitHub READMEs to use as tailoring context",
	Run: func(cmd *cobra.Command, _ []string) {
		fetch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSlice("repo", nil, "repository as owner/name; repeatable")
	fetchCmd.Flags().String("user", "", "download READMEs of every public non-fork repository of this user")
	fetchCmd.Flags().String("out-dir", "readmes", "directory for downloaded READMEs")
}

func fetch(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	token, err := secrets.Optional(secrets.Source{
		Name:  "github token",
		Value: config.GitHub.Token,
		File:  config.GitHub.TokenFile,
		Env:   "GITHUB_TOKEN",
	})
	if err != nil {
		logger.Fatal("loading github token", zap.Error(err))
	}

	client := github.New(token, logger)
	if config.GitHub.APIURL != "" {
		client.APIURL = config.GitHub.APIURL
	}

	repos, _ := cmd.Flags().GetStringSlice("repo")
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		owned, err := client.UserRepos(ctx, user)
		if err != nil {
			logger.Fatal("listing repositories", zap.Error(err))
		}
		logger.Info("repositories found", zap.String("user", user), zap.Int("count", len(owned)))
		repos = append(repos, owned...)
	}

	if len(repos) == 0 {
		logger.Fatal("nothing to fetch, pass --repo or --user")
	}

	dir, _ := cmd.Flags().GetString("out-dir")
	var saved []string
	for _, repo := range repos {
		paths, err := client.DownloadReadmes(ctx, []string{repo}, dir)
		if errors.Is(err, github.ErrNotFound) {
			logger.Warn("repository has no readme, skipping", zap.String("repo", repo))
			continue
		}
		if err != nil {
			logger.Fatal("downloading readme", zap.String("repo", repo), zap.Error(err))
		}
		saved = append(saved, paths...)
	}

	logger.Info("readmes downloaded", zap.String("dir", dir), zap.Int("count", len(saved)))
}
