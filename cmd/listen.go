// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/pkg/config"
	"github.com/ramses-gw/ramses-gw/pkg/metrics"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Decode and print the live message stream",
	Long: `listen opens the configured serial port (or replay file) and runs the
full decode/filter/entity pipeline without sending anything onto the
bus: a listen-only mode for monitoring traffic or bootstrapping a
known-devices file.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	source, sender, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()
	gw.Attach(sender)

	if cfg.MetricsAddr != "" {
		collector := metrics.New(gw.Dispatcher(), gw.DutyCycle())
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Infof("listen: serving metrics on %s/metrics", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Errorf("listen: metrics server: %v", err)
			}
		}()
	}

	fmt.Printf("ramses-gw listen: %s\n", describeSource(cfg))
	return gw.Run(source, sender)
}

func describeSource(cfg *config.Config) string {
	if cfg.InputFile != "" {
		return fmt.Sprintf("replaying %s", cfg.InputFile)
	}
	return fmt.Sprintf("%s @ %d baud", cfg.SerialPort, baudRate)
}
