package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hydrasphere",
	Short: "A procedurally deformed, audio-reactive sphere",
	Long: `Hydrasphere evaluates a sphere mesh whose surface is displaced by simplex noise
presets, a live visual-synth texture and a grid glitch, and reconstructs smooth
normals for the displaced surface.

Frames can be served to a browser over HTTP/websockets, baked into a SQLite frame
store, or dumped one at a time.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-format", "text", "Log format (text, json)")

	flags.String("params", "", "Synthesis parameters as a query string, e.g. \"preset=twister&noiseStrength=0.6\"")
	flags.Int("width-segments", 128, "Horizontal segments of the UV sphere")
	flags.Int("height-segments", 64, "Vertical segments of the UV sphere")
	flags.Float64("radius", 1.5, "Sphere radius")
	flags.IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")

	flags.String("field", "", "Image (png, jpeg, webp) used as a static external field instead of the synth")
	flags.String("sketch", "oscillator", "Visual synth sketch driving the external field")
	flags.Int("field-size", 256, "Edge length of the external field in pixels")
	flags.Int64("seed", 1337, "Seed for the noise sketch")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"log-format", "log-format"},
		{"params", "params"},
		{"mesh.width_segments", "width-segments"},
		{"mesh.height_segments", "height-segments"},
		{"mesh.radius", "radius"},
		{"workers", "workers"},
		{"field.path", "field"},
		{"field.sketch", "sketch"},
		{"field.size", "field-size"},
		{"field.seed", "seed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, flags.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("HYDRASPHERE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
