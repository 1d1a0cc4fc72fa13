package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Path: "/data/cmskit.db"},
		Tree:     TreeConfig{StepLength: 4, BaseType: "pages.page"},
		Site:     SiteConfig{URLPrefix: "/"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_StepLength(t *testing.T) {
	tests := []struct {
		step  int
		valid bool
	}{
		{0, false},
		{1, true},
		{4, true},
		{8, true},
		{9, false},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Tree.StepLength = tt.step

		err := cfg.Validate()
		if tt.valid {
			assert.NoError(t, err, "step %d", tt.step)
		} else {
			assert.Error(t, err, "step %d", tt.step)
		}
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }},
		{"empty base type", func(c *Config) { c.Tree.BaseType = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"relative url prefix", func(c *Config) { c.Site.URLPrefix = "site/" }},
		{"negative rate limit", func(c *Config) { c.Site.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 4, cfg.Tree.StepLength)
	assert.Equal(t, "pages.page", cfg.Tree.BaseType)
	assert.Equal(t, filepath.Join(dataDir, "cmskit.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dataDir, "search"), cfg.Search.Path)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Search.Enabled)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("TREE_STEP_LENGTH", "3")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load([]string{
		"-env-file", filepath.Join(dataDir, "missing.env"),
		"-port", "9100",
		"-cors-origins", "https://a.example, https://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Tree.StepLength)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_read_timeout")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_CONFIG_KEY", "default-value"))
	assert.Equal(t, "env-value", getConfigValue("", "TEST_CONFIG_KEY", "default-value"))
	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetTypedConfigValues(t *testing.T) {
	assert.True(t, getBoolConfigValue("YES", "UNSET_BOOL", false))
	assert.False(t, getBoolConfigValue("no", "UNSET_BOOL", true))
	assert.True(t, getBoolConfigValue("", "UNSET_BOOL", true))
	assert.Equal(t, 7, getIntConfigValue("7", "UNSET_INT", 1))
	assert.Equal(t, 1, getIntConfigValue("seven", "UNSET_INT", 1))
	assert.InDelta(t, 2.5, getFloatConfigValue("2.5", "UNSET_FLOAT", 1), 0.0001)
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/sites/db", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "sites", "db"), got)

	got, err = expandPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	got, err = expandPath("relative/db", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
CMSKIT_TEST_ENV=staging

CMSKIT_TEST_QUOTED="some value"
  CMSKIT_TEST_SPACED  =  spaced value
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, key := range []string{"CMSKIT_TEST_ENV", "CMSKIT_TEST_QUOTED", "CMSKIT_TEST_SPACED"} {
		t.Setenv(key, "")
		os.Unsetenv(key) //nolint:errcheck // Test setup
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("CMSKIT_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("CMSKIT_TEST_QUOTED"))
	assert.Equal(t, "spaced value", os.Getenv("CMSKIT_TEST_SPACED"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("CMSKIT_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CMSKIT_TEST_VAR=new-value"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("CMSKIT_TEST_VAR"))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}
