// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

func parseYAML(yamlFilePath string) (*StructuredConfig, error) {
	yamlFile, err := os.Open(yamlFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a yaml file: %w", err)
	}
	defer yamlFile.Close()

	var fileCfg StructuredFileConfig
	if err := yaml.NewDecoder(yamlFile).Decode(&fileCfg); err != nil {
		return nil, fmt.Errorf("error decoding yaml configs: %w", err)
	}

	return fileCfg.toStructured(), nil
}

// UnmarshalYAML accepts duration strings ("30s") and plain integers
// (nanoseconds), mirroring UnmarshalJSON.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	tmp, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}
