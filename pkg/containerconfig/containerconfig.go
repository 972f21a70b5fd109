/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package containerconfig

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/tidwall/jsonc"
)

// DefaultContainer is the container ID used when no other container applies.
const DefaultContainer = "default"

// Container holds the token settings of a single container.
type Container struct {
	// SecurityTokenKeyFile is the path to the key file used to encrypt and
	// decrypt this container's security tokens. A container without one cannot
	// host blob tokens.
	SecurityTokenKeyFile string `json:"securityTokenKeyFile,omitempty"`
	// SignedFetchDomain is the domain used for signed fetch requests made on
	// behalf of tokens from this container.
	SignedFetchDomain string `json:"signedFetchDomain,omitempty"`
}

// Config maps container IDs to their settings.
type Config struct {
	Containers map[string]Container `json:"containers"`
}

// Load reads container configuration from the given file.
// The file is JSON and may contain // and /* */ comments.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read container config file: %w", err)
	}

	var config Config

	err = json.Unmarshal(jsonc.ToJSON(data), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse container config file %s: %w", path, err)
	}

	if len(config.Containers) == 0 {
		return nil, fmt.Errorf("container config file %s defines no containers", path)
	}

	return &config, nil
}
