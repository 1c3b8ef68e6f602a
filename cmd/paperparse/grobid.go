// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperparse/internal/container"
	"github.com/pdiddy/paperparse/internal/grobid"
)

var grobidCmd = &cobra.Command{
	Use:   "grobid",
	Short: "Check on, start, or stop a local GROBID server",
}

var grobidStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the configured GROBID server is alive",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGrobidClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		alive, err := client.IsAlive(ctx)
		if err != nil {
			fmt.Fprintf(out, "GROBID at %s: unreachable\n", client.URL())
			return err
		}
		if !alive {
			fmt.Fprintf(out, "GROBID at %s: not alive\n", client.URL())
			return fmt.Errorf("GROBID at %s is not alive", client.URL())
		}

		v, err := client.Version(ctx)
		if err != nil {
			v = "unknown"
		}
		fmt.Fprintf(out, "GROBID at %s: alive (version %s)\n", client.URL(), v)
		return nil
	},
}

var grobidStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a GROBID container with docker or podman",
	Long: `Start runs the GROBID image detached with --rm, publishing port 8070 on the
host port given by --port. The image is pulled first when it is not present.
With --wait, the command returns once the server answers its liveness probe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		name, _ := cmd.Flags().GetString("name")
		port, _ := cmd.Flags().GetInt("port")
		wait, _ := cmd.Flags().GetDuration("wait")
		out := cmd.OutOrStdout()

		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}

		pulled, err := container.EnsureImage(rt, image)
		if err != nil {
			return err
		}
		if pulled {
			fmt.Fprintf(out, "pulled: %s\n", image)
		}

		id, err := rt.Start(image, name, port)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "started: %s (%s, %s)\n", name, rt.Name(), shortID(id))

		if wait <= 0 {
			return nil
		}

		client, err := newGrobidClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), wait)
		defer cancel()
		if err := client.WaitAlive(ctx, 2*time.Second); err != nil {
			return err
		}
		fmt.Fprintf(out, "ready: %s\n", client.URL())
		return nil
	},
}

var grobidStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the GROBID container started by `grobid start`",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		if err := rt.Stop(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stopped: %s\n", name)
		return nil
	},
}

func init() {
	grobidStartCmd.Flags().String("image", container.DefaultImage, "GROBID container image")
	grobidStartCmd.Flags().String("name", container.DefaultName, "container name")
	grobidStartCmd.Flags().Int("port", 8070, "host port to publish GROBID on")
	grobidStartCmd.Flags().Duration("wait", 0, "wait up to this long for GROBID to become ready")
	grobidStopCmd.Flags().String("name", container.DefaultName, "container name")

	grobidCmd.AddCommand(grobidStatusCmd, grobidStartCmd, grobidStopCmd)
	rootCmd.AddCommand(grobidCmd)
}

// newGrobidClient builds a client from the resolved configuration.
func newGrobidClient() (*grobid.Client, error) {
	cfg, err := loadParseConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	cfg.Grobid.Timeout = 10 * time.Second
	return grobid.NewClient(cfg.Grobid, nil, logger), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
