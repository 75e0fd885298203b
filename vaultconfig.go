// Package vaultconfig loads secrets from a HashiCorp Vault KV-v2 mount and
// merges them into a viper-based configuration as its highest-precedence
// layer. Nested secret structures are flattened to colon-delimited keys
// ("Database:Password"), so configuration sections can reference
// secret-derived values the same way they reference any other key.
//
// Two activation styles are supported. LoadInto is the eager path: one call
// that authenticates, reads, flattens and merges during configuration
// build. Alternatively NewClient plus Client.Source wires the same pipeline
// in explicit steps, and keeps the typed client around for runtime lookups.
//
// The initial load deliberately blocks: secrets are load-bearing for the
// configuration built on top of them, so startup must not proceed on a
// partial view. The block happens once, off any request path, and is
// bounded by Options.StartupTimeout.
package vaultconfig

import (
	"context"

	"github.com/spf13/viper"
)

// NewClient validates the options, authenticates with the selected
// strategy and returns a ready secret client. Disabled options return
// ErrDisabled without any network traffic.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Disabled {
		return nil, ErrDisabled
	}

	logger := opts.logger()
	ctx, cancel := context.WithTimeout(ctx, opts.startupTimeout())
	defer cancel()

	apiClient, err := newAPIClient(&opts, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("authenticating to vault", "method", opts.Auth.name(), "address", opts.Address)
	token, err := opts.Auth.login(ctx, logger, apiClient, &opts)
	if err != nil {
		return nil, err
	}
	apiClient.SetToken(token)

	return &Client{
		api:    apiClient,
		mount:  opts.MountPoint,
		logger: logger,
	}, nil
}

// LoadInto is the single-call bootstrap path: build a client, read the
// environment's secrets once and merge them into v with override
// precedence. When the options are disabled this is a silent no-op and no
// store call is ever made. With WithReload the returned source keeps
// re-applying fresh snapshots to v; without it the source is closed before
// returning.
func LoadInto(ctx context.Context, v *viper.Viper, opts Options, environment string, srcOpts ...SourceOption) (*Source, error) {
	if opts.Disabled {
		return nil, nil
	}

	client, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	source, err := client.Source(environment, srcOpts...)
	if err != nil {
		return nil, err
	}
	// Re-apply on every successful reload so v tracks the latest snapshot.
	source.reloadNotifiers = append([]func(){func() { source.Apply(v) }}, source.reloadNotifiers...)

	ctx, cancel := context.WithTimeout(ctx, opts.startupTimeout())
	defer cancel()
	if err := source.Load(ctx); err != nil {
		return nil, err
	}
	source.Apply(v)

	if !source.reload {
		source.Close()
	}
	return source, nil
}
