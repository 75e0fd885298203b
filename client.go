package vaultconfig

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/vault/api"
)

// Client is a typed secret-access handle bound to one KV-v2 mount. Every
// operation is a fresh round-trip; nothing is memoized. The client is safe
// for concurrent reads once constructed.
type Client struct {
	api    *api.Client
	mount  string
	logger hclog.Logger
}

// ListEnvironments lists the top-level secret paths under the mount point.
func (c *Client) ListEnvironments(ctx context.Context) ([]string, error) {
	listPath := path.Join(c.mount, "metadata")
	secret, err := c.api.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, &StoreError{Op: "list", Path: listPath, Err: err}
	}
	if secret == nil || secret.Data == nil {
		return []string{}, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return []string{}, nil
	}
	environments := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			environments = append(environments, strings.TrimSuffix(s, "/"))
		}
	}
	return environments, nil
}

// GetSecrets reads all key/value pairs stored under the given environment.
// A missing path is an empty map, not an error.
func (c *Client) GetSecrets(ctx context.Context, environment string) (map[string]interface{}, error) {
	if strings.TrimSpace(environment) == "" {
		return nil, fmt.Errorf("%w: environment must not be empty", ErrInvalidArgument)
	}

	secret, err := c.api.KVv2(c.mount).Get(ctx, environment)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return map[string]interface{}{}, nil
		}
		return nil, &StoreError{Op: "read", Path: path.Join(c.mount, "data", environment), Err: err}
	}
	if secret == nil || secret.Data == nil {
		return map[string]interface{}{}, nil
	}
	return secret.Data, nil
}

// GetSecretValue reads a single value. Absent keys return nil, not an error.
func (c *Client) GetSecretValue(ctx context.Context, environment, key string) (interface{}, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: key must not be empty", ErrInvalidArgument)
	}

	secrets, err := c.GetSecrets(ctx, environment)
	if err != nil {
		return nil, err
	}
	return secrets[key], nil
}

// GetNestedSecretValue walks a dotted path through nested secret values,
// e.g. "database.primary.password". The walk stops with a nil result as
// soon as a segment is missing or the current value is not a map.
func (c *Client) GetNestedSecretValue(ctx context.Context, environment, dottedPath string) (interface{}, error) {
	if strings.TrimSpace(dottedPath) == "" {
		return nil, fmt.Errorf("%w: path must not be empty", ErrInvalidArgument)
	}

	secrets, err := c.GetSecrets(ctx, environment)
	if err != nil {
		return nil, err
	}

	var current interface{} = secrets
	for _, segment := range strings.Split(dottedPath, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		current, ok = node[segment]
		if !ok {
			return nil, nil
		}
	}
	return current, nil
}

// newAPIClient builds the underlying Vault API client for the options,
// including the documented insecure-TLS opt-out.
func newAPIClient(opts *Options, logger hclog.Logger) (*api.Client, error) {
	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, &StoreError{Op: "connect", Err: cfg.Error}
	}
	cfg.Address = opts.Address

	if opts.IgnoreTLSErrors {
		logger.Warn("TLS certificate verification for the vault connection is disabled; never use this outside of development")
		if err := cfg.ConfigureTLS(&api.TLSConfig{Insecure: true}); err != nil {
			return nil, &StoreError{Op: "connect", Err: err}
		}
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}

	return client.WithRequestCallbacks(userAgentCallback()), nil
}
