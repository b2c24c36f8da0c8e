package cli

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
)

func newTopicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage destination topics",
	}
	cmd.AddCommand(newTopicEnsureCmd())
	return cmd
}

func newTopicEnsureCmd() *cobra.Command {
	var (
		opts       runOptions
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create the topic if it does not exist",
		Example: `  pacer topic ensure --transport kafka --kafka-brokers localhost:9092 --topic sandiego
  pacer topic ensure --transport redis --topic sandiego --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Transport.Topic == "" {
				return fmt.Errorf("%w: topic is required", config.ErrInvalidConfig)
			}

			log := logrus.WithFields(logrus.Fields{
				"topic":     cfg.Transport.Topic,
				"transport": cfg.Transport.Kind,
			})
			tr, err := openTransport(cmd.Context(), cfg, "", cmd.OutOrStdout(), log)
			if err != nil {
				return err
			}
			defer tr.Close()

			topic, created, err := sink.Ensure(cmd.Context(), tr.admin, cfg.Transport.Topic, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"topic":   topic,
					"created": created,
				})
			}
			verb := "Reusing"
			if created {
				verb = "Created"
			}
			fmt.Fprintf(out, "%s topic %s on %s\n", verb, topic.Name, topic.Transport)
			return nil
		},
	}

	opts.addTransportFlags(cmd)
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the topic as JSON")

	return cmd
}
