package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *AppConfig {
	cfg := new(AppConfig)
	cfg.AppID = "brain-trails"
	cfg.Env = EnvDevelopment
	cfg.Database.Driver = "sqlite3"
	cfg.Database.MaxConn = 1
	cfg.Logging.Level = "info"
	cfg.Security.IDLength = 16
	cfg.Security.JWTMethod = "HS256"
	cfg.Security.JWTSecret = "secret"
	cfg.Security.TokenName = "bt_token"
	cfg.AI.Provider = "heuristic"
	cfg.AI.MaxInputChars = 4000
	cfg.Review.DueLimit = 20
	return cfg
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))

	cfg := validConfig()
	cfg.Security.JWTSecret = ""
	cfg.Database.Driver = "oracle"
	cfg.Security.IDLength = 4

	err := validateConfig(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "security.jwt_secret is required")
	assert.Contains(t, err.Error(), "database.driver must be one of (mysql postgres sqlite3)")
	assert.Contains(t, err.Error(), "security.id_length must be at least 8")
}

func TestAppConfig_CORSOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.CORS.Origins = " http://localhost:3000, ,https://app.example.com "
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins())

	cfg.CORS.Origins = ""
	assert.Empty(t, cfg.CORSOrigins())
}
