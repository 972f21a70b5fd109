/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokencmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortune/Hello-Shindig/pkg/auth"
	"github.com/fortune/Hello-Shindig/pkg/containerconfig"
	cmdutils "github.com/fortune/Hello-Shindig/pkg/utils/cmd"
)

const (
	tokenFlagName      = "token"
	tokenEnvKey        = "TOKEN_UTIL_TOKEN"
	tokenFlagShorthand = "t"
	tokenFlagUsage     = "Wire-format security token to decode." +
		" Alternatively, this can be set with the following environment variable: " + tokenEnvKey

	activeURLFlagName  = "active-url"
	activeURLEnvKey    = "TOKEN_UTIL_ACTIVE_URL"
	activeURLFlagUsage = "URL to attach to the decoded token as its active URL. Optional." +
		" Alternatively, this can be set with the following environment variable: " + activeURLEnvKey
)

// decodedToken is the printable form of a decoded security token.
type decodedToken struct {
	Owner              string `json:"owner,omitempty"`
	Viewer             string `json:"viewer,omitempty"`
	AppURL             string `json:"appUrl,omitempty"`
	Domain             string `json:"domain,omitempty"`
	Container          string `json:"container"`
	ModuleID           int64  `json:"moduleId,omitempty"`
	ExpiresAt          string `json:"expiresAt,omitempty"`
	TrustedJSON        string `json:"trustedJson,omitempty"`
	ActiveURL          string `json:"activeUrl,omitempty"`
	AuthenticationMode string `json:"authenticationMode"`
	Anonymous          bool   `json:"anonymous,omitempty"`
}

// GetDecodeCmd returns the decode command.
func GetDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a security token",
		Long:  "Decode and verify a wire-format security token and print its fields as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := cmdutils.GetUserSetVar(cmd, configFileFlagName, configFileEnvKey, false)
			if err != nil {
				return err
			}

			wireToken, err := cmdutils.GetUserSetVar(cmd, tokenFlagName, tokenEnvKey, false)
			if err != nil {
				return err
			}

			activeURL, err := cmdutils.GetUserSetVar(cmd, activeURLFlagName, activeURLEnvKey, true)
			if err != nil {
				return err
			}

			decoded, err := decodeToken(configFile, wireToken, activeURL)
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(decoded, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal decoded token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(output))

			return nil
		},
	}

	decodeCmd.Flags().StringP(configFileFlagName, configFileFlagShorthand, "", configFileFlagUsage)
	decodeCmd.Flags().StringP(tokenFlagName, tokenFlagShorthand, "", tokenFlagUsage)
	decodeCmd.Flags().String(activeURLFlagName, "", activeURLFlagUsage)

	return decodeCmd
}

func decodeToken(configFile, wireToken, activeURL string) (*decodedToken, error) {
	config, err := containerconfig.Load(configFile)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewBlobTokenCodec(config.Containers)
	if err != nil {
		return nil, err
	}

	tokenParameters := map[string]string{auth.SecurityTokenParam: wireToken}
	if activeURL != "" {
		tokenParameters[auth.ActiveURLParam] = activeURL
	}

	token, err := codec.CreateToken(tokenParameters)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	decoded := &decodedToken{
		Owner:              token.OwnerID(),
		Viewer:             token.ViewerID(),
		AppURL:             token.AppURL(),
		Domain:             token.Domain(),
		Container:          token.Container(),
		ModuleID:           token.ModuleID(),
		TrustedJSON:        token.TrustedJSON(),
		AuthenticationMode: token.AuthenticationMode(),
		Anonymous:          token.IsAnonymous(),
	}

	if expiresAt := token.ExpiresAt(); !expiresAt.IsZero() {
		decoded.ExpiresAt = expiresAt.Format(time.RFC3339)
	}

	if tokenActiveURL, err := token.ActiveURL(); err == nil {
		decoded.ActiveURL = tokenActiveURL
	}

	return decoded, nil
}
