package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/hydrasphere/internal/server"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Evaluate a single frame and write it as JSON or binary",
	RunE:  runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)

	frameCmd.Flags().Float64("time", 0, "Time in seconds")
	frameCmd.Flags().String("format", "json", "Output format (json, bin)")
	frameCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"frame.time", "time"},
		{"frame.format", "format"},
		{"frame.output", "output"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, frameCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runFrame(cmd *cobra.Command, args []string) (err error) {
	if logger == nil {
		initLogging()
	}

	v := viper.GetViper()
	t := v.GetFloat64("frame.time")
	format := v.GetString("frame.format")
	if format != "json" && format != "bin" {
		return fmt.Errorf("unknown format %q (want json or bin)", format)
	}

	cfg := sceneConfigFromViper(v)
	p, err := resolveParams(v)
	if err != nil {
		return err
	}
	latest, renderer, err := newFieldSource(cfg)
	if err != nil {
		return err
	}
	if renderer != nil {
		synth.NewRunner(renderer, latest, 0, nil, logger).Step(t)
	}

	engine := buildEngine(cfg, p, latest)
	verts, err := engine.Frame(context.Background(), t, nil)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if path := v.GetString("frame.output"); path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("failed to create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	bw := bufio.NewWriter(out)
	if err := server.WriteFrame(bw, format, t, verts); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	logger.Debug("Wrote frame", "time", t, "vertices", len(verts), "format", format)
	return nil
}
