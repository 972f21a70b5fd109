/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokencmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortune/Hello-Shindig/pkg/auth"
	"github.com/fortune/Hello-Shindig/pkg/containerconfig"
	"github.com/fortune/Hello-Shindig/pkg/crypto/blobcrypter"
	cmdutils "github.com/fortune/Hello-Shindig/pkg/utils/cmd"
)

const (
	configFileFlagName      = "config"
	configFileEnvKey        = "TOKEN_UTIL_CONFIG"
	configFileFlagShorthand = "c"
	configFileFlagUsage     = "Path to the container configuration file." +
		" Alternatively, this can be set with the following environment variable: " + configFileEnvKey

	containerFlagName  = "container"
	containerEnvKey    = "TOKEN_UTIL_CONTAINER"
	containerFlagUsage = "Container to mint the token under. Defaults to " + containerconfig.DefaultContainer +
		" if not set. Alternatively, this can be set with the following environment variable: " + containerEnvKey

	ownerFlagName      = "owner"
	ownerEnvKey        = "TOKEN_UTIL_OWNER"
	ownerFlagShorthand = "o"
	ownerFlagUsage     = "Owner ID to mint the token with." +
		" Alternatively, this can be set with the following environment variable: " + ownerEnvKey

	viewerFlagName      = "viewer"
	viewerEnvKey        = "TOKEN_UTIL_VIEWER"
	viewerFlagShorthand = "v"
	viewerFlagUsage     = "Viewer ID to mint the token with." +
		" Alternatively, this can be set with the following environment variable: " + viewerEnvKey

	appURLFlagName      = "app-url"
	appURLEnvKey        = "TOKEN_UTIL_APP_URL"
	appURLFlagShorthand = "a"
	appURLFlagUsage     = "URL of the application the token is minted for." +
		" Alternatively, this can be set with the following environment variable: " + appURLEnvKey

	moduleIDFlagName  = "module-id"
	moduleIDEnvKey    = "TOKEN_UTIL_MODULE_ID"
	moduleIDFlagUsage = "Module instance ID of the application. Optional." +
		" Alternatively, this can be set with the following environment variable: " + moduleIDEnvKey

	lifetimeFlagName  = "lifetime"
	lifetimeEnvKey    = "TOKEN_UTIL_LIFETIME"
	lifetimeFlagUsage = "How long the minted token stays valid, e.g. 30m." +
		" Optional, no expiry is embedded in the token if not set." +
		" Alternatively, this can be set with the following environment variable: " + lifetimeEnvKey

	trustedJSONFlagName  = "trusted-json"
	trustedJSONEnvKey    = "TOKEN_UTIL_TRUSTED_JSON"
	trustedJSONFlagUsage = "Opaque container-trusted JSON to embed in the token. Optional." +
		" Alternatively, this can be set with the following environment variable: " + trustedJSONEnvKey
)

type mintParameters struct {
	configFile  string
	container   string
	owner       string
	viewer      string
	appURL      string
	moduleID    int64
	lifetime    time.Duration
	trustedJSON string
}

// GetMintCmd returns the mint command.
func GetMintCmd() *cobra.Command {
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a security token",
		Long:  "Mint a security token under a configured container and print its wire form.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getMintParameters(cmd)
			if err != nil {
				return err
			}

			wireToken, err := mintToken(parameters)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), wireToken)

			return nil
		},
	}

	createMintFlags(mintCmd)

	return mintCmd
}

func createMintFlags(mintCmd *cobra.Command) {
	mintCmd.Flags().StringP(configFileFlagName, configFileFlagShorthand, "", configFileFlagUsage)
	mintCmd.Flags().String(containerFlagName, "", containerFlagUsage)
	mintCmd.Flags().StringP(ownerFlagName, ownerFlagShorthand, "", ownerFlagUsage)
	mintCmd.Flags().StringP(viewerFlagName, viewerFlagShorthand, "", viewerFlagUsage)
	mintCmd.Flags().StringP(appURLFlagName, appURLFlagShorthand, "", appURLFlagUsage)
	mintCmd.Flags().String(moduleIDFlagName, "", moduleIDFlagUsage)
	mintCmd.Flags().String(lifetimeFlagName, "", lifetimeFlagUsage)
	mintCmd.Flags().String(trustedJSONFlagName, "", trustedJSONFlagUsage)
}

func getMintParameters(cmd *cobra.Command) (*mintParameters, error) {
	configFile, err := cmdutils.GetUserSetVar(cmd, configFileFlagName, configFileEnvKey, false)
	if err != nil {
		return nil, err
	}

	container, err := cmdutils.GetUserSetVar(cmd, containerFlagName, containerEnvKey, true)
	if err != nil {
		return nil, err
	}

	if container == "" {
		container = containerconfig.DefaultContainer
	}

	owner, err := cmdutils.GetUserSetVar(cmd, ownerFlagName, ownerEnvKey, false)
	if err != nil {
		return nil, err
	}

	viewer, err := cmdutils.GetUserSetVar(cmd, viewerFlagName, viewerEnvKey, false)
	if err != nil {
		return nil, err
	}

	appURL, err := cmdutils.GetUserSetVar(cmd, appURLFlagName, appURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	trustedJSON, err := cmdutils.GetUserSetVar(cmd, trustedJSONFlagName, trustedJSONEnvKey, true)
	if err != nil {
		return nil, err
	}

	parameters := &mintParameters{
		configFile:  configFile,
		container:   container,
		owner:       owner,
		viewer:      viewer,
		appURL:      appURL,
		trustedJSON: trustedJSON,
	}

	moduleID, err := cmdutils.GetUserSetVar(cmd, moduleIDFlagName, moduleIDEnvKey, true)
	if err != nil {
		return nil, err
	}

	if moduleID != "" {
		parameters.moduleID, err = strconv.ParseInt(moduleID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse module ID %q: %w", moduleID, err)
		}
	}

	lifetime, err := cmdutils.GetUserSetVar(cmd, lifetimeFlagName, lifetimeEnvKey, true)
	if err != nil {
		return nil, err
	}

	if lifetime != "" {
		parameters.lifetime, err = time.ParseDuration(lifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse lifetime %q: %w", lifetime, err)
		}
	}

	return parameters, nil
}

func mintToken(parameters *mintParameters) (string, error) {
	config, err := containerconfig.Load(parameters.configFile)
	if err != nil {
		return "", err
	}

	container, ok := config.Containers[parameters.container]
	if !ok {
		return "", fmt.Errorf("container %s is not defined in %s", parameters.container, parameters.configFile)
	}

	if container.SecurityTokenKeyFile == "" {
		return "", fmt.Errorf("container %s has no security token key file", parameters.container)
	}

	crypter, err := blobcrypter.NewFromKeyFile(container.SecurityTokenKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to load security token key for container %s: %w",
			parameters.container, err)
	}

	data := auth.TokenData{
		OwnerID:     parameters.owner,
		ViewerID:    parameters.viewer,
		AppURL:      parameters.appURL,
		ModuleID:    parameters.moduleID,
		TrustedJSON: parameters.trustedJSON,
	}

	if parameters.lifetime != 0 {
		data.ExpiresAt = time.Now().Add(parameters.lifetime)
	}

	token := auth.NewBlobCrypterToken(crypter, parameters.container, container.SignedFetchDomain, data)

	return token.Encrypt()
}
