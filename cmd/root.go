package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/career-path/internal/server"
)

const (
	app       = "career-path"
	envPrefix = "CAREER_PATH"
)

type Config struct {
	Server  server.Config  `mapstructure:"server"`
	Store   *StoreConfig   `mapstructure:"store"`
	Catalog *CatalogConfig `mapstructure:"catalog"`
	Auth    *AuthConfig    `mapstructure:"auth"`
	API     *APIConfig     `mapstructure:"api"`
	Assist  *AssistConfig  `mapstructure:"assist"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type CatalogConfig struct {
	File string `mapstructure:"file"`
}

type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	SecretFile string `mapstructure:"secret-file"`
}

type APIConfig struct {
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
}

type AssistConfig struct {
	// Mode is one of live-chat, advisor or none.
	Mode        string        `mapstructure:"mode"`
	LiveChatURL string        `mapstructure:"live-chat-url"`
	Gemini      *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-path collects a student's class, sector and dream job and shows the career paths ahead",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-path.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	rootCmd.PersistentFlags().String("store", "", "path to the SQLite database (default career-path.db)")
	rootCmd.PersistentFlags().String("api-url", "", "career-path API base url (default http://localhost:5000)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":5000")
	v.SetDefault("server.allowed-origins", []string{})
	v.SetDefault("store.path", "career-path.db")
	v.SetDefault("catalog.file", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret-file", "")
	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.token-file", "")
	v.SetDefault("assist.mode", assistLiveChat)
	v.SetDefault("assist.live-chat-url", "https://tawk.to/chat")
	v.SetDefault("assist.gemini.api-key-file", "")
	v.SetDefault("assist.gemini.model", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Auth == nil {
		config.Auth = &AuthConfig{}
	}
	if config.API == nil {
		config.API = &APIConfig{}
	}
	if config.Assist == nil {
		config.Assist = &AssistConfig{}
	}
	if config.Assist.Gemini == nil {
		config.Assist.Gemini = &GeminiConfig{}
	}

	return config, nil
}
