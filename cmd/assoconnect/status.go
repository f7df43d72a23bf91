// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hactazia/assoconnect/internal/config"
)

// ProbeStatus holds the result of one health probe.
type ProbeStatus struct {
	Probe   string `json:"probe"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	metricsAddr string
	jsonOutput  bool
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running server",
		Long:  `Probe the liveness and readiness endpoints of a running server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "", "metrics/health address to probe (default from config)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	addr := cfg.metricsAddr
	if addr == "" {
		appCfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}
		addr = appCfg.Server.MetricsAddr
	}

	client := &http.Client{Timeout: 3 * time.Second}
	statuses := []ProbeStatus{
		probe(client, addr, "liveness"),
		probe(client, addr, "readiness"),
	}

	if cfg.jsonOutput {
		raw, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(raw))
		return nil
	}

	cmd.Println(formatStatusTable(statuses))
	return nil
}

// probe hits one health endpoint and classifies the answer.
func probe(client *http.Client, addr, name string) ProbeStatus {
	status := ProbeStatus{Probe: name}

	resp, err := client.Get("http://" + addr + "/healthz/" + name)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.Healthy = resp.StatusCode == http.StatusOK
	status.Detail = resp.Status
	return status
}

func formatStatusTable(statuses []ProbeStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROBE\tHEALTHY\tDETAIL")
	for _, s := range statuses {
		detail := s.Detail
		if s.Error != "" {
			detail = s.Error
		}
		fmt.Fprintf(w, "%s\t%t\t%s\n", s.Probe, s.Healthy, detail)
	}
	// Flush cannot fail on a bytes.Buffer.
	_ = w.Flush()
	return buf.String()
}
