package credential

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	return repo.envVars[key]
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	repo.envVars[key] = ""
	return nil
}

func (repo fakeEnvRepo) List() []string {
	envs := []string{}
	for k, v := range repo.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func completeEnvs() map[string]string {
	return map[string]string{
		ConsumerKeyEnvKey:    "ck",
		ConsumerSecretEnvKey: "cs",
		AccessTokenEnvKey:    "at",
		AccessSecretEnvKey:   "as",
	}
}

func TestSecret_String(t *testing.T) {
	assert.Equal(t, "", Secret("").String())
	assert.Equal(t, "*****", Secret("very-secret").String())
	assert.Equal(t, "*****", fmt.Sprintf("%s", Secret("very-secret")))
	assert.Equal(t, "very-secret", Secret("very-secret").Value())
}

func TestEnvProvider_Credential(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		want    Credential
		wantErr error
	}{
		{
			name: "complete credential",
			envs: completeEnvs(),
			want: Credential{Name: "env", ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"},
		},
		{
			name:    "nothing configured",
			envs:    map[string]string{},
			wantErr: ErrNoAccountsFound,
		},
		{
			name:    "partially configured",
			envs:    map[string]string{ConsumerKeyEnvKey: "ck"},
			wantErr: ErrNoAccountsFound,
		},
		{
			name: "access denied",
			envs: func() map[string]string {
				envs := completeEnvs()
				envs[AccessGrantedEnvKey] = "false"
				return envs
			}(),
			wantErr: ErrPermissionDenied,
		},
		{
			name: "named account",
			envs: func() map[string]string {
				envs := completeEnvs()
				envs[AccountNameEnvKey] = "marketing"
				return envs
			}(),
			want: Credential{Name: "marketing", ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewEnvProvider(fakeEnvRepo{envVars: tt.envs})

			got, err := provider.Credential(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const accountsYML = `accounts:
  - name: main
    consumer_key: ck1
    consumer_secret: cs1
    access_token: at1
    access_secret: as1
  - name: archived
    consumer_key: ck2
    consumer_secret: cs2
    access_token: at2
    access_secret: as2
    disabled: true
  - name: broken
    consumer_key: ck3
`

func writeAccounts(t *testing.T, content string) string {
	pth := filepath.Join(t.TempDir(), "accounts.yml")
	require.NoError(t, os.WriteFile(pth, []byte(content), 0600))
	return pth
}

func TestFileProvider_Credential(t *testing.T) {
	accountsPath := writeAccounts(t, accountsYML)

	tests := []struct {
		name     string
		path     string
		account  string
		wantName string
		wantErr  error
	}{
		{name: "first account by default", path: accountsPath, wantName: "main"},
		{name: "named account", path: accountsPath, account: "main", wantName: "main"},
		{name: "unknown account", path: accountsPath, account: "nope", wantErr: ErrNoAccountsFound},
		{name: "disabled account", path: accountsPath, account: "archived", wantErr: ErrPermissionDenied},
		{name: "incomplete account", path: accountsPath, account: "broken", wantErr: ErrNoAccountsFound},
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.yml"), wantErr: ErrNoAccountsFound},
		{name: "empty account list", path: writeAccounts(t, "accounts: []\n"), wantErr: ErrNoAccountsFound},
		{name: "invalid yaml", path: writeAccounts(t, "accounts: [:\n"), wantErr: ErrNoAccountsFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFileProvider(tt.path, tt.account).Credential(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestStaticProvider_Credential(t *testing.T) {
	_, err := NewStaticProvider(Credential{Name: "empty"}).Credential(context.Background())
	require.ErrorIs(t, err, ErrNoAccountsFound)

	cred := Credential{Name: "ok", ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessSecret: "d"}
	got, err := NewStaticProvider(cred).Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}
