// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// healthReport is what "necx health" prints in JSON and YAML.
type healthReport struct {
	BaseURL   string `json:"base_url"`
	Healthy   bool   `json:"healthy"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.Client()
			start := time.Now()
			status, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend %s is unhealthy: %w", client.BaseURL(), err)
			}

			report := healthReport{
				BaseURL:   client.BaseURL(),
				Healthy:   true,
				Message:   status.Message,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			p := newPrinter(cmd.OutOrStdout(), app.format())
			if p.format != FormatTable {
				return p.print(report, nil, nil)
			}

			msg := report.Message
			if msg == "" {
				msg = "ok"
			}
			_, err = fmt.Fprintf(p.out, "%s: %s (%dms)\n", report.BaseURL, msg, report.LatencyMS)
			return err
		},
	}
}
