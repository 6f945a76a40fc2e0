package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the triviad
// server and its tools. An instance is loaded once on startup and passed
// explicitly to anything that needs it.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the game server will listen.
	Port int `mapstructure:"port"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"logging"`

	Database struct {
		// Either sqlite (the default) or postgres.
		Engine string `mapstructure:"engine"`
		// Path to the database file when the engine is sqlite.
		Filename string `mapstructure:"filename"`
		// Connection parameters when the engine is postgres.
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Name     string `mapstructure:"name"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Game struct {
		// Points awarded for a correct answer.
		CorrectAnswerScore int `mapstructure:"correct_answer_score"`
		// Number of entries in the highscore table.
		HighscoreTableSize int `mapstructure:"highscore_table_size"`
		// How long a computed highscore table may be served before being
		// recomputed, in seconds.
		HighscoreCacheSeconds int `mapstructure:"highscore_cache_seconds"`
		// When true, users are never served a question they have already
		// been asked.
		ExcludeAskedQuestions bool `mapstructure:"exclude_asked_questions"`
		// When true, the same username may be logged in over multiple
		// connections at once.
		AllowDuplicateLogins bool `mapstructure:"allow_duplicate_logins"`
	} `mapstructure:"game"`
}

const envVarPrefix = "TRIVIAD"

// LoadConfig initializes Viper with the contents of the config file under
// configPath and returns the unmarshaled Config.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s\n", configPath)
		} else {
			fmt.Printf("error reading config file: %v\n", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s\n", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v\n", err)
		os.Exit(1)
	}
	return config
}

// ListenAddress returns the full address on which the game server listens.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

const postgresURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a postgres DSN generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		postgresURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}
