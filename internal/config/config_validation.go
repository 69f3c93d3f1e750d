// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "time"

const (
	defaultHTTPAddress       = ":10000"
	defaultRequestTimeout    = 30 * time.Second
	defaultEventBufferSize   = 64
	defaultValidationTimeout = 25 * time.Second
	defaultInfoPollInterval  = 500 * time.Millisecond
	defaultInfoTimeout       = 20 * time.Second
	defaultSlot              = "default"
	defaultSessionsRoot      = ".wwebjs_auth"
	defaultMaxArchiveSize    = 512 << 20
	defaultAdapterTimeout    = 15 * time.Second
	defaultPollInterval      = time.Second
	defaultDownloadTimeout   = 2 * time.Minute
	defaultInboxDebounce     = 500 * time.Millisecond
)

// applyDefaults fills every field left empty by all configuration sources.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Server.HTTPAddress == "" {
		cfg.Server.HTTPAddress = defaultHTTPAddress
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Server.EventBufferSize == 0 {
		cfg.Server.EventBufferSize = defaultEventBufferSize
	}

	if cfg.App.ValidationTimeout == 0 {
		cfg.App.ValidationTimeout = defaultValidationTimeout
	}
	if cfg.App.InfoPollInterval == 0 {
		cfg.App.InfoPollInterval = defaultInfoPollInterval
	}
	if cfg.App.InfoTimeout == 0 {
		cfg.App.InfoTimeout = defaultInfoTimeout
	}
	if cfg.App.DefaultSlot == "" {
		cfg.App.DefaultSlot = defaultSlot
	}

	if cfg.Storage.Sessions.Root == "" {
		cfg.Storage.Sessions.Root = defaultSessionsRoot
	}
	if cfg.Storage.Sessions.MaxArchiveSize == 0 {
		cfg.Storage.Sessions.MaxArchiveSize = defaultMaxArchiveSize
	}

	if cfg.Adapter.RequestTimeout == 0 {
		cfg.Adapter.RequestTimeout = defaultAdapterTimeout
	}
	if cfg.Adapter.PollInterval == 0 {
		cfg.Adapter.PollInterval = defaultPollInterval
	}
	if cfg.Adapter.DownloadTimeout == 0 {
		cfg.Adapter.DownloadTimeout = defaultDownloadTimeout
	}

	if cfg.Workers.InboxDebounce == 0 {
		cfg.Workers.InboxDebounce = defaultInboxDebounce
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout < 0 || cfg.Server.EventBufferSize < 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.Sessions.Root == "" || cfg.Storage.Sessions.MaxArchiveSize < 0 {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BridgeURL == "" || cfg.Adapter.PollInterval < 0 || cfg.Adapter.RequestTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.App.ValidationTimeout < 0 || cfg.App.InfoPollInterval <= 0 || cfg.App.InfoPollInterval > cfg.App.InfoTimeout {
		return ErrInvalidAppConfigs
	}

	return nil
}
