// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/soundlake/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Field-level rules come from the validate struct tags; the remaining
// checks span several fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateLocations(); err != nil {
		return err
	}

	if err := c.validateAWS(); err != nil {
		return err
	}

	return c.validateStore()
}

// validateLocations rejects an output that would overwrite the input prefix.
func (c *Config) validateLocations() error {
	in := strings.TrimRight(c.Input.Path, "/")
	out := strings.TrimRight(c.Output.Path, "/")
	if in == out {
		return fmt.Errorf("OUTPUT_PATH must differ from INPUT_PATH (both %q)", c.Output.Path)
	}
	return nil
}

// validateAWS requires static credentials to be given as a pair.
func (c *Config) validateAWS() error {
	hasKey := c.AWS.AccessKeyID != ""
	hasSecret := c.AWS.SecretAccessKey != ""
	if hasKey != hasSecret {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	if c.AWS.SessionToken != "" && !hasKey {
		return fmt.Errorf("AWS_SESSION_TOKEN requires AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	return nil
}

// validateStore checks the rate limiter settings.
func (c *Config) validateStore() error {
	if c.Store.RequestsPerSecond > 0 && c.Store.Burst < 1 {
		return fmt.Errorf("STORE_BURST must be at least 1 when STORE_REQUESTS_PER_SECOND is set, got %d", c.Store.Burst)
	}
	return nil
}
