package cli

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	envFile   string
}

// NewRootCmd creates the root pacer command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pacer",
		Short: "Replay recorded sensor data into pub/sub at simulated speed",
		Long: `Pacer replays a timestamped sensor log into a publish-subscribe channel,
reproducing the gaps between observations scaled by a speed factor.

A speed factor of 60 sends one hour of recorded data in one minute.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with PACER_* variables (ignored if missing)")
	root.SetGlobalNormalizationFunc(normalizeFlagName)

	root.AddCommand(
		newSimulateCmd(),
		newTopicCmd(),
		newGenerateCmd(),
	)

	return root
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(cmd.ErrOrStderr())

	switch o.logFormat {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q, must be text or json", o.logFormat)
	}

	required := cmd.Flags().Changed("env-file")
	return config.LoadDotEnv(o.envFile, required)
}

// normalizeFlagName accepts camelCase spellings such as --speedFactor.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return pflag.NormalizedName(strings.ReplaceAll(b.String(), "_", "-"))
}
