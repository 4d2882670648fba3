package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type accountsFile struct {
	Accounts []accountEntry `yaml:"accounts"`
}

type accountEntry struct {
	Name           string `yaml:"name"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	AccessToken    string `yaml:"access_token"`
	AccessSecret   string `yaml:"access_secret"`
	Disabled       bool   `yaml:"disabled"`
}

func (e accountEntry) credential() Credential {
	return Credential{
		Name:           e.Name,
		ConsumerKey:    Secret(e.ConsumerKey),
		ConsumerSecret: Secret(e.ConsumerSecret),
		AccessToken:    Secret(e.AccessToken),
		AccessSecret:   Secret(e.AccessSecret),
	}
}

// FileProvider selects an account from a YAML accounts file.
// Without an account name the first account of the file is used.
type FileProvider struct {
	path    string
	account string
}

// NewFileProvider ...
func NewFileProvider(path, account string) FileProvider {
	return FileProvider{path: path, account: account}
}

// Credential ...
func (p FileProvider) Credential(context.Context) (Credential, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Credential{}, fmt.Errorf("%w: read accounts file: %s", ErrPermissionDenied, err)
		}
		return Credential{}, fmt.Errorf("%w: read accounts file: %s", ErrNoAccountsFound, err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Credential{}, fmt.Errorf("%w: parse accounts file: %s", ErrNoAccountsFound, err)
	}
	if len(file.Accounts) == 0 {
		return Credential{}, ErrNoAccountsFound
	}

	entry, err := p.selectAccount(file.Accounts)
	if err != nil {
		return Credential{}, err
	}
	if entry.Disabled {
		return Credential{}, fmt.Errorf("%w: account %q is disabled", ErrPermissionDenied, entry.Name)
	}

	cred := entry.credential()
	if err := cred.Validate(); err != nil {
		return Credential{}, fmt.Errorf("%w: %s", ErrNoAccountsFound, err)
	}
	return cred, nil
}

func (p FileProvider) selectAccount(accounts []accountEntry) (accountEntry, error) {
	if p.account == "" {
		return accounts[0], nil
	}
	for _, account := range accounts {
		if account.Name == p.account {
			return account, nil
		}
	}
	return accountEntry{}, fmt.Errorf("%w: no account named %q", ErrNoAccountsFound, p.account)
}
