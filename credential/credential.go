// Package credential supplies the signing identity used for platform API requests.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAccountsFound is returned when no usable account is configured.
var ErrNoAccountsFound = errors.New("no accounts found")

// ErrPermissionDenied is returned when access to the configured accounts is refused.
var ErrPermissionDenied = errors.New("no permission to access accounts")

// Secret is a string value that is redacted when printed.
type Secret string

// String ...
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 5)
}

// Value returns the unredacted value.
func (s Secret) Value() string {
	return string(s)
}

// Credential is an OAuth 1.0a user context able to sign requests.
type Credential struct {
	Name           string
	ConsumerKey    Secret
	ConsumerSecret Secret
	AccessToken    Secret
	AccessSecret   Secret
}

// Validate checks that every signing component is present.
func (c Credential) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer key")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "consumer secret")
	}
	if c.AccessToken == "" {
		missing = append(missing, "access token")
	}
	if c.AccessSecret == "" {
		missing = append(missing, "access secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete credential %q: missing %s", c.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Provider grants access to one account.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

type staticProvider struct {
	credential Credential
}

// NewStaticProvider returns a Provider that always hands out the given credential.
func NewStaticProvider(credential Credential) Provider {
	return staticProvider{credential: credential}
}

// Credential ...
func (p staticProvider) Credential(context.Context) (Credential, error) {
	if err := p.credential.Validate(); err != nil {
		return Credential{}, fmt.Errorf("%w: %s", ErrNoAccountsFound, err)
	}
	return p.credential, nil
}
