package vaultconfig

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the options for completeness. Violations are collected
// rather than reported one at a time, so a single ConfigError names every
// problem. Disabled options always validate.
func (o *Options) Validate() error {
	if o.Disabled {
		return nil
	}

	var result *multierror.Error
	if strings.TrimSpace(o.Address) == "" {
		result = multierror.Append(result, errors.New("vault address is required"))
	}
	if strings.TrimSpace(o.MountPoint) == "" {
		result = multierror.Append(result, errors.New("KV-v2 mount point is required"))
	}
	if o.Auth == nil {
		result = multierror.Append(result, errors.New("an authentication method is required"))
	} else if err := o.Auth.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}
