package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Render one visual-synth frame to an image",
	Long: `Synth renders the external field at a single point in time and writes it as
PNG or WebP (chosen by the output extension). Useful to preview sketches.`,
	RunE: runSynth,
}

func init() {
	rootCmd.AddCommand(synthCmd)

	synthCmd.Flags().Float64("time", 0, "Time in seconds")
	synthCmd.Flags().StringP("output", "o", "field.png", "Output image (.png or .webp)")
	synthCmd.Flags().Float64Slice("bands", nil, "Audio band levels (bass, low-mid, high-mid, treble) in [0,1]")
	synthCmd.Flags().Float64("audio-gain", 0, "How strongly audio bands brighten the output")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"synth.time", "time"},
		{"synth.output", "output"},
		{"synth.audio_gain", "audio-gain"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, synthCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func parseBands(values []float64) (audio.Bands, error) {
	var b audio.Bands
	if len(values) > audio.NumBands {
		return b, fmt.Errorf("expected at most %d bands, got %d", audio.NumBands, len(values))
	}
	for i, x := range values {
		if x < 0 || x > 1 {
			return b, fmt.Errorf("band %d out of range [0,1]: %g", i, x)
		}
		b[i] = x
	}
	return b, nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	v := viper.GetViper()
	cfg := sceneConfigFromViper(v)
	output := v.GetString("synth.output")
	t := v.GetFloat64("synth.time")

	raw, err := cmd.Flags().GetFloat64Slice("bands")
	if err != nil {
		return err
	}
	bands, err := parseBands(raw)
	if err != nil {
		return err
	}

	r := synth.NewRenderer(synth.ParseSketch(cfg.Sketch),
		synth.WithSize(cfg.FieldSize),
		synth.WithSeed(cfg.Seed),
		synth.WithAudioGain(v.GetFloat64("synth.audio_gain")),
	)
	img := r.Render(t, bands)

	if err := field.WriteFile(output, img); err != nil {
		return err
	}

	logger.Info("Wrote field",
		"output", output,
		"sketch", r.Sketch().String(),
		"size", r.Size(),
		"time", t,
	)
	return nil
}
