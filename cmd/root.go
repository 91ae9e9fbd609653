package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-loader/configs"
	"github.com/RyanBlaney/sonido-loader/logging"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	v = configs.New()
	// appFs backs every manifest, record and output access
	appFs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sonido-loader",
	Short: "Block loader and feature extraction for training data",
	Long: `Reads the records listed in a CSV manifest in blocks, prefetching the
next block while the current one is processed, and runs every record through
an extract/transform/load pipeline.

Supported media:
- audio: 16-bit mono WAV to spectrogram, MFSC or MFCC images
- boundingbox: JSON annotations to fixed-size box buffers`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	err := rootCmd.Execute()
	_ = logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./sonido-loader.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console",
		"log encoding (console, json)")

	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initializeConfig reads the config file and binds the flags of cmd
func initializeConfig(cmd *cobra.Command) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("sonido-loader")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	return setupLogging(v.GetString("log_level"), v.GetString("log_format"))
}

// bindFlags binds each local flag of cmd to the viper key of the same name,
// with dashes turned into underscores
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Annotations != nil {
			if k, ok := f.Annotations["viper_key"]; ok && len(k) > 0 {
				key = k[0]
			}
		}
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func setupLogging(level, format string) error {
	var logger *logging.DefaultLogger
	switch format {
	case "", "console":
		logger = logging.NewDefaultLogger()
		logger.SetLevel(logging.ParseLevel(level))
	case "json":
		logger = logging.NewJSONLogger(logging.ParseLevel(level))
	default:
		return fmt.Errorf("unknown log format %q, expected console or json", format)
	}
	logging.SetGlobalLogger(logger)
	return nil
}

// flagKey ties flag name on cmd to a nested viper key
func flagKey(cmd *cobra.Command, name, key string) {
	_ = cmd.Flags().SetAnnotation(name, "viper_key", []string{key})
}
