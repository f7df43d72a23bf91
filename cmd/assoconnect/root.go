// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the AssoConnect CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assoconnect",
		Short: "AssoConnect - membership and scheduling backend",
		Long: `AssoConnect is the backend for a membership platform with
invitation-gated registration, session authentication, and meeting
scheduling.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
