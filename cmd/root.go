package cmd

import (
	"errors"
	"log"

	"github.com/spigell/cv-refiner/internal/ai/openrouter"
	"github.com/spigell/cv-refiner/internal/judge"
	"github.com/spigell/cv-refiner/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "cv-refiner"
)

type Config struct {
	Provider   string            `mapstructure:"provider"`
	OpenRouter openrouter.Config `mapstructure:"openrouter"`
	Gemini     GeminiConfig      `mapstructure:"gemini"`
	Judges     judge.Registry    `mapstructure:"judges"`
	Judge      JudgeConfig       `mapstructure:"judge"`
	GitHub     GitHubConfig      `mapstructure:"github"`
	ChangesDir string            `mapstructure:"changes-dir"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type JudgeConfig struct {
	MaxRetries  int     `mapstructure:"max-retries"`
	Temperature float64 `mapstructure:"temperature"`
}

type GitHubConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	APIURL    string `mapstructure:"api-url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-refiner fits a CV to a page budget, tailors it with a model and scores it against a job description with a judge ensemble",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine; keys may come from the environment or the config file.
	_ = godotenv.Load()

	for key, env := range map[string]string{
		"openrouter.api-key": "OPENROUTER_API_KEY",
		"openrouter.model":   "OPENROUTER_MODEL",
		"gemini.api-key":     "GEMINI_API_KEY",
		"github.token":       "GITHUB_TOKEN",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("provider", openrouter.Provider)
	viper.SetDefault("changes-dir", "changes")
	viper.SetDefault("judge.max-retries", judge.DefaultMaxAttempts)
	viper.SetDefault("judge.temperature", 0.3)
	viper.SetDefault("openrouter.x-title", app)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-refiner.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if len(config.Judges) == 0 {
		config.Judges = judge.DefaultRegistry()
	}

	return config, nil
}

// setup builds the command logger and reads the config, failing the process on error.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("app", app), zap.String("version", version), zap.String("provider", config.Provider))

	return logger, config
}
