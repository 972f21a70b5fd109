/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokencmd

import (
	"encoding/base64"
	"fmt"
	"io/ioutil"

	"github.com/google/tink/go/subtle/random"
	"github.com/spf13/cobra"

	cmdutils "github.com/fortune/Hello-Shindig/pkg/utils/cmd"
)

const (
	keyFileFlagName      = "key-file"
	keyFileEnvKey        = "TOKEN_UTIL_KEY_FILE"
	keyFileFlagShorthand = "f"
	keyFileFlagUsage     = "Path to write the generated key file to." +
		" Alternatively, this can be set with the following environment variable: " + keyFileEnvKey

	masterKeyLen       = 32
	keyFilePermissions = 0o600
)

// GetKeygenCmd returns the keygen command.
func GetKeygenCmd() *cobra.Command {
	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a security token key file",
		Long: "Generate a new random master key and write it to a key file, base64 encoded," +
			" readable only by the current user.",
		RunE: func(cmd *cobra.Command, args []string) error {
			keyFile, err := cmdutils.GetUserSetVar(cmd, keyFileFlagName, keyFileEnvKey, false)
			if err != nil {
				return err
			}

			return writeKeyFile(keyFile)
		},
	}

	keygenCmd.Flags().StringP(keyFileFlagName, keyFileFlagShorthand, "", keyFileFlagUsage)

	return keygenCmd
}

func writeKeyFile(path string) error {
	masterKey := base64.StdEncoding.EncodeToString(random.GetRandomBytes(masterKeyLen)) + "\n"

	err := ioutil.WriteFile(path, []byte(masterKey), keyFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	logger.Infof("wrote new security token key to %s", path)

	return nil
}
