package vaultconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/vault/api"
	"github.com/mitchellh/go-homedir"

	"github.com/dotwired/vaultconfig/internal/awsauth"
)

const defaultTokenFileName = ".vault-token"

func (a LocalAuth) login(_ context.Context, logger hclog.Logger, _ *api.Client, _ *Options) (string, error) {
	tokenPath, err := a.resolveTokenPath()
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: err}
	}

	logger.Debug("reading vault token from file", "path", tokenPath)
	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf("reading token file %s: %w", tokenPath, err)}
	}

	token := strings.TrimSpace(string(raw))
	if len(token) >= len("bearer ") && strings.EqualFold(token[:len("bearer ")], "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf("token file %s is empty", tokenPath)}
	}

	return token, nil
}

// resolveTokenPath expands environment variables and a leading ~ in the
// configured path, falling back to ~/.vault-token when no path is set.
func (a LocalAuth) resolveTokenPath() (string, error) {
	p := strings.TrimSpace(a.TokenFilePath)
	if p == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("locating home directory for default token file: %w", err)
		}
		return filepath.Join(home, defaultTokenFileName), nil
	}

	p = os.ExpandEnv(p)
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expanding token file path %s: %w", p, err)
	}
	return expanded, nil
}

func (a AWSIAMAuth) login(ctx context.Context, logger hclog.Logger, client *api.Client, opts *Options) (string, error) {
	role := a.roleName(opts.MountPoint)
	authMount := a.authMountPoint()

	provider := a.Credentials
	if provider == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(a.region()),
			awsconfig.WithLogger(awsauth.NewSDKLogger(logger)),
		)
		if err != nil {
			return "", &AuthError{Method: a.name(), Err: fmt.Errorf(
				"resolving ambient AWS credentials: %w; ensure an instance profile, task role or environment credentials are available", err)}
		}
		provider = cfg.Credentials
	}

	login, err := awsauth.BuildLoginData(ctx, provider, a.region(), time.Now().UTC())
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: err}
	}
	payload, err := login.LoginPayload(role)
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: err}
	}

	logger.Debug("logging in to vault with aws-iam auth", "role", role, "auth_mount", authMount)
	secret, err := client.Logical().WriteWithContext(ctx, fmt.Sprintf("auth/%s/login", authMount), payload)
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf(
			"login to auth/%s/login as role %q failed: %w; check that the role exists, its bound IAM principal ARN matches the caller, and the AWS credential source is correct", authMount, role, err)}
	}
	if secret == nil || secret.Auth == nil {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf(
			"got no auth data from auth/%s/login for role %q", authMount, role)}
	}

	token := secret.Auth.ClientToken
	client.SetToken(token)

	// Self-lookup of the fresh session, so a misconfigured role binding
	// fails here instead of at the first secret read.
	if _, err := client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf(
			"validating session for role %q: %w", role, err)}
	}

	return token, nil
}

func (a AWSIAMAuth) region() string {
	if a.STSRegion == "" {
		return awsauth.DefaultSTSRegion
	}
	return a.STSRegion
}

func (a CustomAuth) login(ctx context.Context, logger hclog.Logger, client *api.Client, _ *Options) (string, error) {
	if a.Login == nil {
		return "", &ConfigError{Err: fmt.Errorf("custom authentication requires a login factory")}
	}

	logger.Debug("logging in to vault with custom auth")
	token, err := a.Login(ctx, client)
	if err != nil {
		return "", &AuthError{Method: a.name(), Err: err}
	}
	if strings.TrimSpace(token) == "" {
		return "", &AuthError{Method: a.name(), Err: fmt.Errorf("login factory returned an empty token")}
	}

	return token, nil
}
