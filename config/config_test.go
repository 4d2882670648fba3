package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/mediaupload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	envVars map[string]string
}

func (r mockRepository) Get(key string) string {
	return r.envVars[key]
}

func (r mockRepository) Set(key, value string) error {
	r.envVars[key] = value
	return nil
}

func (r mockRepository) Unset(key string) error {
	delete(r.envVars, key)
	return nil
}

func (r mockRepository) List() []string {
	var envs []string
	for k, v := range r.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func writeConfig(t *testing.T, content string) string {
	pth := filepath.Join(t.TempDir(), "mediaupload.yml")
	require.NoError(t, os.WriteFile(pth, []byte(content), 0600))
	return pth
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(mockRepository{envVars: map[string]string{}}, "")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, mediaupload.DefaultConfig(), cfg.UploaderConfig())
}

func TestLoad_FileThenEnv(t *testing.T) {
	pth := writeConfig(t, `
upload_url: https://upload.example.com/media/upload.json
phase_timeout: 30s
wait_for_processing: true
accounts_file: /etc/mediaupload/accounts.yml
account: team
aws_region: eu-west-1
`)
	repo := mockRepository{envVars: map[string]string{
		PhaseTimeoutKey:       "45s",
		AccountKey:            "release",
		AWSAccessKeyIDKey:     "AKIA",
		AWSSecretAccessKeyKey: "secret",
		VerboseKey:            "true",
	}}

	cfg, err := Load(repo, pth)
	require.NoError(t, err)

	assert.Equal(t, "https://upload.example.com/media/upload.json", cfg.UploadURL)
	assert.Equal(t, mediaupload.DefaultStatusUpdateURL, cfg.StatusUpdateURL)
	assert.Equal(t, 45*time.Second, cfg.PhaseTimeout)
	assert.True(t, cfg.WaitForProcessing)
	assert.Equal(t, 5*time.Minute, cfg.MaxProcessingWait)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/etc/mediaupload/accounts.yml", cfg.AccountsFile)
	assert.Equal(t, "release", cfg.Account)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, credential.Secret("secret"), cfg.AWSSecretAccessKey)
	assert.False(t, cfg.EnableAnalytics)

	uploaderConfig := cfg.UploaderConfig()
	assert.Equal(t, "https://upload.example.com/media/upload.json", uploaderConfig.Endpoints.UploadURL)
	assert.Equal(t, 45*time.Second, uploaderConfig.PhaseTimeout)
	assert.True(t, uploaderConfig.WaitForProcessing)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		envs    map[string]string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			file:    "phase_timeout: [",
			wantErr: "parse config file",
		},
		{
			name:    "invalid duration in env",
			envs:    map[string]string{PhaseTimeoutKey: "soon"},
			wantErr: PhaseTimeoutKey,
		},
		{
			name:    "invalid bool in env",
			envs:    map[string]string{WaitForProcessingKey: "maybe"},
			wantErr: WaitForProcessingKey,
		},
		{
			name:    "upload url without scheme",
			envs:    map[string]string{UploadURLKey: "upload.example.com"},
			wantErr: "upload_url",
		},
		{
			name:    "negative timeout",
			file:    "phase_timeout: -1s",
			wantErr: "phase_timeout must not be negative",
		},
		{
			name:    "aws key without secret",
			envs:    map[string]string{AWSAccessKeyIDKey: "AKIA"},
			wantErr: "aws_secret_access_key is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pth := ""
			if tt.file != "" {
				pth = writeConfig(t, tt.file)
			}
			envs := tt.envs
			if envs == nil {
				envs = map[string]string{}
			}

			_, err := Load(mockRepository{envVars: envs}, pth)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(mockRepository{envVars: map[string]string{}}, filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
