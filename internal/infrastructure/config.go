package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "BRAINTRAILS"

// runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	SessionTimeout time.Duration `mapstructure:"session_timeout" json:"session_timeout" yaml:"session_timeout"`
	SessionRefresh time.Duration `mapstructure:"session_refresh" json:"session_refresh" yaml:"session_refresh"` // session refresh threshold
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout" json:"refresh_timeout" yaml:"refresh_timeout"` // refresh token lifetime
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
	Database       struct {
		Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=mysql postgres sqlite3"`  // driver name
		Host     string `mapstructure:"host" json:"host" yaml:"host"`                                                // server host
		MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=1"`                      // maximum opening connections number
		Password string `mapstructure:"password" json:"-" yaml:"password"`                                           // db password
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
		Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
		Query    string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
		Schema   string `mapstructure:"schema" json:"schema" yaml:"schema"`                                          // use schema
		User     string `mapstructure:"username" json:"username" yaml:"username"`                                    // db username
		File     string `mapstructure:"file" json:"file" yaml:"file"`                                                // sqlite database file
	} `mapstructure:"database" json:"database" yaml:"database"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Security struct {
		IDLength         int           `mapstructure:"id_length" json:"id_length" yaml:"id_length" validate:"min=8"` // length of generated ID for entities
		JWTMethod        string        `mapstructure:"jwt_method" json:"jwt_method" yaml:"jwt_method" validate:"oneof=HS256 HS512"`
		JWTSecret        string        `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret" validate:"required"`
		TokenName        string        `mapstructure:"token_name" json:"token_name" yaml:"token_name" validate:"required"`     // jwt token name set in cookie
		MaxLoginAttempts int           `mapstructure:"max_login_attempts" json:"max_login_attempts" yaml:"max_login_attempts"` // maximum login attempts
		RetryTimeout     time.Duration `mapstructure:"retry_timeout" json:"retry_timeout" yaml:"retry_timeout"`                // retry wait
	} `mapstructure:"security" json:"security" yaml:"security"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"` // bind host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"` // bind listen port
		Password string `mapstructure:"password" json:"-" yaml:"password"`
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	CORS struct {
		Origins string `mapstructure:"origins" json:"origins" yaml:"origins"` // comma separated allowed origins
	} `mapstructure:"cors" json:"cors" yaml:"cors"`
	AI struct {
		Provider      string        `mapstructure:"provider" json:"provider" yaml:"provider" validate:"oneof=heuristic openai"`
		BaseURL       string        `mapstructure:"base_url" json:"base_url" yaml:"base_url"`
		APIKey        string        `mapstructure:"api_key" json:"-" yaml:"api_key"`
		Model         string        `mapstructure:"model" json:"model" yaml:"model"`
		MaxInputChars int           `mapstructure:"max_input_chars" json:"max_input_chars" yaml:"max_input_chars" validate:"min=1"`
		Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
		MaxRetries    int           `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`
		Fallback      bool          `mapstructure:"fallback" json:"fallback" yaml:"fallback"` // fall back to heuristics when the model fails
	} `mapstructure:"ai" json:"ai" yaml:"ai"`
	Review struct {
		DueLimit        int           `mapstructure:"due_limit" json:"due_limit" yaml:"due_limit" validate:"min=1"`
		RefreshInterval time.Duration `mapstructure:"refresh_interval" json:"refresh_interval" yaml:"refresh_interval"` // due count cache refresh
	} `mapstructure:"review" json:"review" yaml:"review"`
	Planner struct {
		StaleAfter    time.Duration `mapstructure:"stale_after" json:"stale_after" yaml:"stale_after"`
		SweepInterval time.Duration `mapstructure:"sweep_interval" json:"sweep_interval" yaml:"sweep_interval"`
	} `mapstructure:"planner" json:"planner" yaml:"planner"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// ErrInvalidConfig returned when the loaded config does not pass validation
var ErrInvalidConfig = errors.New("invalid config")

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// .env is optional, real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// app
	pflag.String("host", "", "binding address")
	pflag.String("app_id", "brain-trails", "application identifier")
	pflag.String("env", EnvDevelopment, "runtime environment, can be 'development' or 'production'")
	pflag.Int("port", 8081, "listening port")
	pflag.Duration("session_timeout", 12*time.Hour, "access token lifetime(m, s and h units are supported), eg.30m")
	pflag.Duration("session_refresh", 5*time.Minute, "session refresh threshold(m, s and h units are supported), eg.5m")
	pflag.Duration("refresh_timeout", 30*24*time.Hour, "refresh token lifetime")
	pflag.Duration("request_timeout", 30*time.Second, "abort requests running longer than this")

	// database
	pflag.String("database.driver", "sqlite3", "database driver to use, one of mysql, postgres, sqlite3")
	pflag.String("database.host", "127.0.0.1", "database host")
	pflag.Int("database.port", 3306, "database server port")
	pflag.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	pflag.String("database.username", "", "database username")
	pflag.String("database.password", "", "database password")
	pflag.String("database.schema", "brain_trails", "database schema")
	pflag.String("database.query", "", `additional DSN query parameters('?' is auto prefixed), if you work with mysql you
must specify "parseTime=true"`)
	pflag.Int32("database.maxconn", 20, `max connection count, if you encounter a "too many connections" error, please consider
increasing the max_connection value of your db server, or lower this value`)
	pflag.String("database.file", "brain_trails.db", "sqlite database file, used when driver is sqlite3")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// security
	pflag.Int("security.id_length", 16, "set length of generated ID for entities")
	pflag.String("security.jwt_method", "HS256", "hash algorithm used for JWT auth")
	pflag.String("security.jwt_secret", "", "JWT secret (required)")
	pflag.String("security.token_name", "bt_token", "cookie name to store the token")
	pflag.Int("security.max_login_attempts", 5, "maximum login attempts before the account is locked")
	pflag.Duration("security.retry_timeout", 15*time.Minute, "lock duration after too many failed logins")

	// kv storage
	pflag.String("kv.host", "", "redis host, an in-process store is used when empty")
	pflag.Int("kv.port", 6379, "kv server port")
	pflag.String("kv.password", "", "kv server password")

	// cors
	pflag.String("cors.origins", "http://localhost:3000", "comma separated list of allowed origins")

	// ai
	pflag.String("ai.provider", "heuristic", "text generation provider, one of heuristic, openai")
	pflag.String("ai.base_url", "https://openrouter.ai/api/v1", "OpenAI compatible API base url")
	pflag.String("ai.api_key", "", "API key of the text generation provider")
	pflag.String("ai.model", "qwen/qwen3-4b:free", "model used for summaries and quizzes")
	pflag.Int("ai.max_input_chars", 4000, "input longer than this is truncated before generation")
	pflag.Duration("ai.timeout", 60*time.Second, "timeout of a single provider call")
	pflag.Int("ai.max_retries", 2, "retries on rate limit or server errors")
	pflag.Bool("ai.fallback", true, "use heuristics when the model provider fails")

	// review
	pflag.Int("review.due_limit", 20, "default number of due cards returned")
	pflag.Duration("review.refresh_interval", 10*time.Minute, "interval of the due count refresher")

	// planner
	pflag.Duration("planner.stale_after", 4*time.Hour, "in-progress sessions older than this are closed")
	pflag.Duration("planner.sweep_interval", 15*time.Minute, "interval of the stale session sweeper")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm metrics")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

// CORSOrigins split configured origins
func (ac *AppConfig) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(ac.CORS.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" {
			return ""
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if err == nil {
		return nil
	}

	var msg []string
	for _, field := range err.(validator.ValidationErrors) {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		case "min":
			msg = append(msg, fmt.Sprintf("%s must be at least %s", fieldName, field.Param()))
		default:
			msg = append(msg, fmt.Sprintf("%s failed on %s", fieldName, field.Tag()))
		}
	}
	return fmt.Errorf("%w: \n%s", ErrInvalidConfig, strings.Join(msg, "\n"))
}
