/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log"

	"github.com/fortune/Hello-Shindig/cmd/token-util/tokencmd"
)

func main() {
	if err := tokencmd.GetRootCmd().Execute(); err != nil {
		log.Fatalf("Failed to run token-util: %s", err.Error())
	}
}
