package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
)

const (
	ConsumerKeyEnvKey    = "MEDIAUPLOAD_CONSUMER_KEY"
	ConsumerSecretEnvKey = "MEDIAUPLOAD_CONSUMER_SECRET"
	AccessTokenEnvKey    = "MEDIAUPLOAD_ACCESS_TOKEN"
	AccessSecretEnvKey   = "MEDIAUPLOAD_ACCESS_SECRET"
	AccountNameEnvKey    = "MEDIAUPLOAD_ACCOUNT_NAME"
	AccessGrantedEnvKey  = "MEDIAUPLOAD_ACCESS_GRANTED"
)

// EnvProvider reads a single account from environment variables.
type EnvProvider struct {
	envRepo env.Repository
}

// NewEnvProvider ...
func NewEnvProvider(envRepo env.Repository) EnvProvider {
	return EnvProvider{envRepo: envRepo}
}

// Credential ...
func (p EnvProvider) Credential(context.Context) (Credential, error) {
	granted := strings.TrimSpace(strings.ToLower(p.envRepo.Get(AccessGrantedEnvKey)))
	if granted == "false" || granted == "no" || granted == "0" {
		return Credential{}, ErrPermissionDenied
	}

	cred := Credential{
		Name:           p.envRepo.Get(AccountNameEnvKey),
		ConsumerKey:    Secret(p.envRepo.Get(ConsumerKeyEnvKey)),
		ConsumerSecret: Secret(p.envRepo.Get(ConsumerSecretEnvKey)),
		AccessToken:    Secret(p.envRepo.Get(AccessTokenEnvKey)),
		AccessSecret:   Secret(p.envRepo.Get(AccessSecretEnvKey)),
	}
	if cred == (Credential{Name: cred.Name}) {
		return Credential{}, ErrNoAccountsFound
	}
	if cred.Name == "" {
		cred.Name = "env"
	}
	if err := cred.Validate(); err != nil {
		return Credential{}, fmt.Errorf("%w: %s", ErrNoAccountsFound, err)
	}

	return cred, nil
}
