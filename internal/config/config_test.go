package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretOrEnv(_ context.Context, secretName, _ string) (string, error) {
	if v, ok := f[secretName]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "postgres", Host: "localhost", User: "crm"},
		Lock:     LockConfig{Mode: "local"},
		CRM:      CRMConfig{DefaultOwner: "CRM Integration"},
	}
}

func TestApplySecrets(t *testing.T) {
	t.Setenv("DEFAULT_DATABASE", "crm_staging")
	t.Setenv("DATABASE_SSLMODE", "require")

	cfg := validConfig()
	cfg.Lock.Mode = "redis"
	cfg.Messaging.Enabled = true

	err := applySecrets(context.Background(), cfg, fakeSecrets{
		"POSTGRES-CRM-HOST":     "db.internal",
		"POSTGRES-CRM-PASSWORD": "s3cret",
		"REDIS-CRM-PASSWORD":    "r3dis",
		"RABBITMQ-CRM-URL":      "amqp://broker.internal",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "crm", cfg.Database.User, "missing secrets keep the configured value")
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "crm_staging", cfg.Database.Name)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "r3dis", cfg.Redis.Password)
	assert.Equal(t, "amqp://broker.internal", cfg.Messaging.URL)
}

func TestApplySecrets_MessagingRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Messaging.Enabled = true

	err := applySecrets(context.Background(), cfg, fakeSecrets{})
	assert.Error(t, err)

	err = applySecrets(context.Background(), cfg, fakeSecrets{"RABBITMQ-CRM-URL": ""})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"sqlite", func(c *Config) { c.Database.Driver = "sqlite" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"unknown lock mode", func(c *Config) { c.Lock.Mode = "etcd" }, true},
		{"blank default owner", func(c *Config) { c.CRM.DefaultOwner = "  " }, true},
		{"messaging without url", func(c *Config) { c.Messaging.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("USE_AZURE_KEY_VAULT", "false")
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	l := LockConfig{TTL: 10, WaitTimeout: 250, RetryBackoff: 50}
	assert.Equal(t, "10s", l.TTLDuration().String())
	assert.Equal(t, "250ms", l.WaitTimeoutDuration().String())
	assert.Equal(t, "50ms", l.RetryBackoffDuration().String())
}
