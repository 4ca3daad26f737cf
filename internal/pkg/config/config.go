/*
Copyright 2026 The Discovery Agent contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the discovery agent settings from flags and
// environment variables.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const (
	DefaultFrequencyHours = 24
	MaxFrequencyHours     = 24 * 24
)

// Flag names double as viper keys.
const (
	catalogURLFlag         = "catalog-url"
	catalogAPITokenFlag    = "catalog-api-token"
	frequencyHoursFlag     = "frequency-hours"
	clusterResourceKeyFlag = "cluster-resource-key"
	providerAccountIDFlag  = "provider-account-id"
)

// Environment variables, in the same order as the flags.
const (
	CatalogURLEnv         = "CONFIGURE8_URL"
	CatalogAPITokenEnv    = "CONFIGURE8_API_TOKEN"
	FrequencyHoursEnv     = "FREQUENCY_HOURS"
	ClusterResourceKeyEnv = "CLUSTER_RESOURCE_KEY"
	ProviderAccountIDEnv  = "PROVIDER_ACCOUNT_ID"
)

var envByFlag = map[string]string{
	catalogURLFlag:         CatalogURLEnv,
	catalogAPITokenFlag:    CatalogAPITokenEnv,
	frequencyHoursFlag:     FrequencyHoursEnv,
	clusterResourceKeyFlag: ClusterResourceKeyEnv,
	providerAccountIDFlag:  ProviderAccountIDEnv,
}

// Config is the validated agent configuration.
type Config struct {
	CatalogURL      string
	CatalogAPIToken string

	// FrequencyHours is the pause between two synchronization cycles.
	FrequencyHours int

	// ClusterResourceKey is the provider resource key of the cluster entity.
	// Empty disables cluster linking.
	ClusterResourceKey string

	ProviderAccountID string
}

// ResyncInterval returns FrequencyHours as a duration.
func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.FrequencyHours) * time.Hour
}

// ConfigurationError reports missing or invalid startup settings.
type ConfigurationError struct {
	Err utilerrors.Aggregate
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AddPFlags registers the agent flags on fs.
func AddPFlags(fs *pflag.FlagSet) {
	fs.String(catalogURLFlag, "", fmt.Sprintf("Base URL of the catalog API (env %s)", CatalogURLEnv))
	fs.String(catalogAPITokenFlag, "", fmt.Sprintf("API key for the catalog API (env %s)", CatalogAPITokenEnv))
	fs.String(frequencyHoursFlag, strconv.Itoa(DefaultFrequencyHours),
		fmt.Sprintf("Hours between two synchronization cycles, at most %d (env %s)", MaxFrequencyHours, FrequencyHoursEnv))
	fs.String(clusterResourceKeyFlag, "", fmt.Sprintf("Provider resource key of the cluster entity in the catalog (env %s)", ClusterResourceKeyEnv))
	fs.String(providerAccountIDFlag, "", fmt.Sprintf("Provider account id the discovered resources belong to (env %s)", ProviderAccountIDEnv))
}

// Load reads the configuration from v. Set flags take precedence over
// environment variables. A missing required value yields a
// *ConfigurationError naming every missing setting.
func Load(v *viper.Viper, fs *pflag.FlagSet, log *zap.SugaredLogger) (*Config, error) {
	for flag, env := range envByFlag {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(flag, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
		if err := v.BindEnv(flag, env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	cfg := &Config{
		CatalogURL:         strings.TrimSpace(v.GetString(catalogURLFlag)),
		CatalogAPIToken:    strings.TrimSpace(v.GetString(catalogAPITokenFlag)),
		ClusterResourceKey: strings.TrimSpace(v.GetString(clusterResourceKeyFlag)),
		ProviderAccountID:  strings.TrimSpace(v.GetString(providerAccountIDFlag)),
		FrequencyHours:     parseFrequency(v.GetString(frequencyHoursFlag), log),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.CatalogURL == "" {
		errs = append(errs, fmt.Errorf("%s has to be set", CatalogURLEnv))
	}
	if c.CatalogAPIToken == "" {
		errs = append(errs, fmt.Errorf("%s has to be set", CatalogAPITokenEnv))
	}
	if c.ProviderAccountID == "" {
		errs = append(errs, fmt.Errorf("%s has to be set", ProviderAccountIDEnv))
	}

	if len(errs) > 0 {
		return &ConfigurationError{Err: utilerrors.NewAggregate(errs)}
	}
	return nil
}

func parseFrequency(value string, log *zap.SugaredLogger) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultFrequencyHours
	}

	hours, err := strconv.Atoi(value)
	if err != nil || hours < 1 || hours > MaxFrequencyHours {
		if log != nil {
			log.Warnw("Invalid synchronization frequency, using the default",
				"value", value,
				"max", MaxFrequencyHours,
				"default", DefaultFrequencyHours,
			)
		}
		return DefaultFrequencyHours
	}
	return hours
}
