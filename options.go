package vaultconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/vault/api"
)

const (
	// DefaultStartupTimeout bounds the single blocking wait performed at
	// process bootstrap. A hung Vault endpoint fails startup instead of
	// stalling it indefinitely.
	DefaultStartupTimeout = 30 * time.Second

	// DefaultAWSAuthMountPoint is where Vault's AWS auth method is mounted
	// unless configured otherwise.
	DefaultAWSAuthMountPoint = "aws"
)

// Options configures a connection to a Vault KV-v2 mount. The zero value is
// enabled; set Disabled to register the options without ever contacting
// Vault.
type Options struct {
	// Disabled skips the whole pipeline. LoadInto becomes a no-op and
	// NewClient returns ErrDisabled.
	Disabled bool

	// Address is the Vault server URL, e.g. "https://vault.example.com:8200".
	Address string

	// MountPoint is the path the KV-v2 secrets engine is mounted at.
	MountPoint string

	// Auth selects the authentication strategy. Exactly one of LocalAuth,
	// AWSIAMAuth or CustomAuth; nil fails validation.
	Auth AuthMethod

	// IgnoreTLSErrors installs a permissive certificate validator and logs
	// a warning on every client construction. Never enable this outside of
	// development.
	IgnoreTLSErrors bool

	// StartupTimeout bounds client construction and the initial secret
	// load. Zero means DefaultStartupTimeout.
	StartupTimeout time.Duration

	// Logger receives structured logs. Nil means no logging.
	Logger hclog.Logger
}

func (o *Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

func (o *Options) startupTimeout() time.Duration {
	if o.StartupTimeout <= 0 {
		return DefaultStartupTimeout
	}
	return o.StartupTimeout
}

// AuthMethod is the closed set of authentication strategies. Implementations
// produce a Vault token for the client; the interface is sealed so an
// options object can never carry a strategy whose shape does not match.
type AuthMethod interface {
	// login authenticates against Vault and returns a client token. It is
	// the only suspension point in client construction.
	login(ctx context.Context, logger hclog.Logger, client *api.Client, opts *Options) (string, error)

	// validate reports strategy-specific configuration problems.
	validate() error

	// name identifies the strategy in errors and logs.
	name() string
}

// LocalAuth reads a bearer token from a file on disk. An empty TokenFilePath
// falls back to the conventional ~/.vault-token location; environment
// variables and a leading ~ in the path are expanded.
type LocalAuth struct {
	TokenFilePath string
}

func (a LocalAuth) name() string { return "local" }

func (a LocalAuth) validate() error { return nil }

// AWSIAMAuth authenticates with Vault's AWS auth method by signing an STS
// GetCallerIdentity request with ambient AWS credentials.
type AWSIAMAuth struct {
	// Environment names the deployment environment and is used to derive
	// the default role name. Required.
	Environment string

	// AuthMountPoint is where the AWS auth method is mounted. Defaults to
	// DefaultAWSAuthMountPoint.
	AuthMountPoint string

	// RoleName overrides the derived "{mount}-{environment}-role" role.
	RoleName string

	// STSRegion selects a regional STS endpoint. Defaults to us-east-1.
	STSRegion string

	// Credentials overrides ambient credential resolution, mainly for
	// tests. Nil means the AWS SDK default chain.
	Credentials aws.CredentialsProvider
}

func (a AWSIAMAuth) name() string { return "aws-iam" }

func (a AWSIAMAuth) validate() error {
	if strings.TrimSpace(a.Environment) == "" {
		return errors.New("aws-iam authentication requires a non-empty environment")
	}
	return nil
}

// roleName returns the configured role or derives one from the KV mount
// point and environment.
func (a AWSIAMAuth) roleName(mountPoint string) string {
	if a.RoleName != "" {
		return a.RoleName
	}
	return fmt.Sprintf("%s-%s-role", mountPoint, a.Environment)
}

func (a AWSIAMAuth) authMountPoint() string {
	if a.AuthMountPoint == "" {
		return DefaultAWSAuthMountPoint
	}
	return a.AuthMountPoint
}

// CustomAuth defers to a caller-supplied login factory. The factory runs
// only after validation has passed, and must return a usable client token.
type CustomAuth struct {
	Login func(ctx context.Context, client *api.Client) (string, error)
}

func (a CustomAuth) name() string { return "custom" }

func (a CustomAuth) validate() error {
	if a.Login == nil {
		return errors.New("custom authentication requires a login factory")
	}
	return nil
}
