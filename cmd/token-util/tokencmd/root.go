/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokencmd

import (
	"github.com/spf13/cobra"
	"github.com/trustbloc/edge-core/pkg/log"

	cmdutils "github.com/fortune/Hello-Shindig/pkg/utils/cmd"
)

const (
	logLevelFlagName      = "log-level"
	logLevelEnvKey        = "TOKEN_UTIL_LOG_LEVEL"
	logLevelFlagShorthand = "l"
	logLevelFlagUsage     = "Logging level to set. Supported options: critical, error, warning, info, debug." +
		" Defaults to info if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	logLevelCritical = "critical"
	logLevelError    = "error"
	logLevelWarn     = "warning"
	logLevelInfo     = "info"
	logLevelDebug    = "debug"
)

const logModuleName = "token-util"

var logger = log.New(logModuleName)

// GetRootCmd returns the token-util root command with all subcommands attached.
func GetRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "token-util",
		Short: "Security token utility",
		Long:  "Utility for generating token keys and for minting and decoding security tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := cmdutils.GetUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			setLogLevel(logLevel)

			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringP(logLevelFlagName, logLevelFlagShorthand, "", logLevelFlagUsage)

	rootCmd.AddCommand(GetKeygenCmd(), GetMintCmd(), GetDecodeCmd())

	return rootCmd
}

func setLogLevel(userLogLevel string) {
	if userLogLevel == "" {
		userLogLevel = logLevelInfo
	}

	logLevel, err := log.ParseLevel(userLogLevel)
	if err != nil {
		logger.Warnf("%s is not a valid logging level. It must be one of the following: "+
			"critical, error, warning, info, debug. Defaulting to info.", userLogLevel)

		logLevel = log.INFO
	}

	log.SetLevel("", logLevel)
}
