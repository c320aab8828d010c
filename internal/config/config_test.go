package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				WebHost:           "0.0.0.0",
				WebPort:           "5151",
				QualityLevel:      "lossless",
				RateLimitEnabled:  true,
				RateLimitRequests: 200,
				RateLimitWindow:   time.Hour,
				BatchConcurrency:  1,
			},
			wantErr: false,
		},
		{
			name: "missing web port",
			config: &Config{
				WebHost:          "0.0.0.0",
				BatchConcurrency: 1,
			},
			wantErr: true,
		},
		{
			name: "invalid web port",
			config: &Config{
				WebPort:          "70000", // Invalid port
				BatchConcurrency: 1,
			},
			wantErr: true,
		},
		{
			name: "navidrome enabled without credentials",
			config: &Config{
				WebPort:          "5151",
				NavidromeEnabled: true,
				NavidromeHost:    "https://navidrome.local",
				BatchConcurrency: 1,
			},
			wantErr: true,
		},
		{
			name: "zero batch concurrency",
			config: &Config{
				WebPort:          "5151",
				BatchConcurrency: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.WebHost)
	assert.Equal(t, "5151", cfg.WebPort)
	assert.Equal(t, "lossless", cfg.QualityLevel)
	assert.Equal(t, "1234", cfg.QRPassword)
	assert.Equal(t, 1, cfg.BatchConcurrency)
	assert.Equal(t, 200, cfg.RateLimitRequests)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, int64(500*1024*1024), cfg.MaxFileSize)
	assert.False(t, cfg.NavidromeEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("WEB_PORT", "8080")
	t.Setenv("QUALITY_LEVEL", "exhigh")
	t.Setenv("IP_WHITELIST", "127.0.0.1, 192.168.1.0/24")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.WebPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "exhigh", cfg.QualityLevel)
	assert.Equal(t, []string{"127.0.0.1", "192.168.1.0/24"}, cfg.IPWhitelist)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
}
