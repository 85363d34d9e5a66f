// Package config assembles the service configuration from defaults, an optional
// JSON file, the environment (with .env support) and command line flags,
// in increasing order of priority, and validates the result.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	BaseURL             string        `env:"BASE_URL" validate:"url"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	SecretKeyFile       string        `env:"SECRET_KEY_FILE" validate:"required"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" validate:"gt=0"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	TrustProxyHeaders   bool          `env:"TRUST_PROXY_HEADERS"`
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	ConfigFile          string        `env:"CONFIG"`
}

// fileStoragePathEnv set to an empty string disables the JSON file storage.
const fileStoragePathEnv = "FILE_STORAGE_PATH"

// jsonConfig mirrors Config for the JSON file. Durations are strings like "10s".
type jsonConfig struct {
	RunAddr             string   `json:"server_address"`
	BaseURL             string   `json:"base_url"`
	LogLevel            string   `json:"log_level"`
	DBFileName          *string  `json:"file_storage_path"`
	DatabaseDSN         string   `json:"database_dsn"`
	DBConnectionTimeout string   `json:"db_connection_timeout"`
	SecretKeyFile       string   `json:"secret_key_file"`
	TokenTTL            string   `json:"token_ttl"`
	TrustedSubnet       string   `json:"trusted_subnet"`
	TrustProxyHeaders   bool     `json:"trust_proxy_headers"`
	AllowedOrigins      []string `json:"allowed_origins"`
}

var defaultConfig = Config{
	RunAddr:             ":3000",
	BaseURL:             "http://localhost:3000",
	LogLevel:            "info",
	DBFileName:          "db.json",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	SecretKeyFile:       "secret_key",
	TokenTTL:            time.Hour,
	TrustedSubnet:       "",
	AllowedOrigins:      []string{"*"},
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return os.IsNotExist(err)
	}

	return !info.IsDir()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing leaves command line flags out of the configuration.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func applyDefaults(values *Config, defaults Config) {
	override(values, defaults)
}

// override copies every non-zero field of src into dst.
func override(dst *Config, src Config) {
	if src.RunAddr != "" {
		dst.RunAddr = src.RunAddr
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DBFileName != "" {
		dst.DBFileName = src.DBFileName
	}
	if src.DatabaseDSN != "" {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if src.DBConnectionTimeout != 0 {
		dst.DBConnectionTimeout = src.DBConnectionTimeout
	}
	if src.SecretKeyFile != "" {
		dst.SecretKeyFile = src.SecretKeyFile
	}
	if src.TokenTTL != 0 {
		dst.TokenTTL = src.TokenTTL
	}
	if src.TrustedSubnet != "" {
		dst.TrustedSubnet = src.TrustedSubnet
	}
	if src.TrustProxyHeaders {
		dst.TrustProxyHeaders = true
	}
	if len(src.AllowedOrigins) > 0 {
		dst.AllowedOrigins = src.AllowedOrigins
	}
	if src.ConfigFile != "" {
		dst.ConfigFile = src.ConfigFile
	}
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}

// loadJSONFile also returns file_storage_path separately: an explicit ""
// in the file disables the JSON file storage.
func loadJSONFile(fileName string) (Config, *string, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Config{}, nil, err
	}

	var raw jsonConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, nil, err
	}

	timeout, err := parseDuration(raw.DBConnectionTimeout)
	if err != nil {
		return Config{}, nil, fmt.Errorf("db_connection_timeout: %w", err)
	}
	ttl, err := parseDuration(raw.TokenTTL)
	if err != nil {
		return Config{}, nil, fmt.Errorf("token_ttl: %w", err)
	}

	return Config{
		RunAddr:             raw.RunAddr,
		BaseURL:             raw.BaseURL,
		LogLevel:            raw.LogLevel,
		DatabaseDSN:         raw.DatabaseDSN,
		DBConnectionTimeout: timeout,
		SecretKeyFile:       raw.SecretKeyFile,
		TokenTTL:            ttl,
		TrustedSubnet:       raw.TrustedSubnet,
		TrustProxyHeaders:   raw.TrustProxyHeaders,
		AllowedOrigins:      raw.AllowedOrigins,
	}, raw.DBFileName, nil
}

// configFileFromArgs finds -c/-config before the full flag set is built,
// because the JSON file sits below flags in priority.
func configFileFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || (name != "c" && name != "config") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}

	return result
}

func (c *Config) parseFlags(args []string) error {
	flagSet := flag.NewFlagSet("recipes", flag.ContinueOnError)

	flagSet.StringVar(&c.RunAddr, "a", c.RunAddr, "address and port to run server")
	flagSet.StringVar(&c.BaseURL, "b", c.BaseURL, "public base URL, used as the token audience")
	flagSet.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flagSet.StringVar(&c.DBFileName, "f", c.DBFileName, "JSON file name with database")
	flagSet.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "A string with the database connection details")
	flagSet.StringVar(&c.SecretKeyFile, "k", c.SecretKeyFile, "file holding the token signing secret")
	flagSet.DurationVar(&c.TokenTTL, "ttl", c.TokenTTL, "token lifetime")
	flagSet.StringVar(&c.TrustedSubnet, "t", c.TrustedSubnet, "CIDR allowed to read internal stats")
	flagSet.BoolVar(&c.TrustProxyHeaders, "trust-proxy", c.TrustProxyHeaders, "take the client IP from X-Real-IP/X-Forwarded-For")
	flagSet.Func("o", "comma separated CORS allowed origins", func(value string) error {
		c.AllowedOrigins = splitList(value)
		return nil
	})
	flagSet.StringVar(&c.ConfigFile, "c", c.ConfigFile, "JSON config file")
	flagSet.StringVar(&c.ConfigFile, "config", c.ConfigFile, "JSON config file")

	return flagSet.Parse(args)
}

// New builds the configuration. Priority: flags > environment > JSON file > defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := valuesFromEnv.ConfigFile
	if !options.disableFlagsParsing {
		if fromArgs := configFileFromArgs(options.args); fromArgs != "" {
			configFile = fromArgs
		}
	}
	if configFile != "" {
		valuesFromJSON, dbFileName, err := loadJSONFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `loadJSONFile()` calling: %w", err)
		}
		override(values, valuesFromJSON)
		if dbFileName != nil {
			values.DBFileName = *dbFileName
		}
	}

	override(values, valuesFromEnv)
	if dbFileName, ok := os.LookupEnv(fileStoragePathEnv); ok {
		values.DBFileName = dbFileName
	}
	values.ConfigFile = configFile

	if !options.disableFlagsParsing {
		if err := values.parseFlags(options.args); err != nil {
			return nil, err
		}
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
