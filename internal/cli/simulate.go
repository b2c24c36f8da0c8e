package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
	"github.com/SmitUplenchwar2687/Pacer/internal/server"
	"github.com/SmitUplenchwar2687/Pacer/internal/sim"
	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
	"github.com/SmitUplenchwar2687/Pacer/internal/source"
)

func newSimulateCmd() *cobra.Command {
	var (
		opts       runOptions
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a sensor log into a topic at a simulated speed",
		Long: `Reads a sensor CSV log in timestamp order and publishes each record to a
topic, reproducing the recorded gaps divided by the speed factor.

Records are published in batches: whenever the replay gets more than the
threshold ahead of the wall clock, the accumulated batch is published and
the command sleeps until the clocks line up again.

Transports:
  stdout    Newline-delimited JSON on standard output
  redis     Redis PUBLISH on the topic channel
  kafka     Kafka messages keyed by run id`,
		Example: `  pacer simulate --speed-factor 60
  pacer simulate --input sensor_obs2008.csv.gz --speed-factor 3600 --transport redis --redis-addr localhost:6379
  pacer simulate --speedFactor 60 --transport kafka --kafka-brokers localhost:9092 --topic sandiego
  pacer simulate --config pacer.yaml --monitor-addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runSimulation(ctx, cfg, cmd.OutOrStdout())
			if summary != nil {
				if perr := printSummary(cmd.ErrOrStderr(), summary, outputJSON); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}

	opts.addSimulationFlags(cmd)
	opts.addTransportFlags(cmd)
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the run summary as JSON")

	return cmd
}

// runSimulation performs one replay described by cfg. stdout receives the
// records when the stdout transport is selected.
func runSimulation(ctx context.Context, cfg config.Config, stdout io.Writer) (*sim.Summary, error) {
	runID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{
		"run_id":    runID,
		"topic":     cfg.Transport.Topic,
		"transport": cfg.Transport.Kind,
	})

	tr, err := openTransport(ctx, cfg, runID, stdout, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			log.WithError(err).Warn("closing transport")
		}
	}()

	if cfg.Transport.CreateTopic {
		if _, _, err := sink.Ensure(ctx, tr.admin, cfg.Transport.Topic, log); err != nil {
			return nil, err
		}
	}

	src, err := source.Open(cfg.Simulation.Input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	publisher := tr.publisher(cfg, log)
	var hub *server.Hub
	if cfg.Monitor.Addr != "" {
		hub = server.NewHub(cfg.Transport.Topic, log)
		publisher = sink.Multi{publisher, hub}
	}

	driverOpts := cfg.DriverOptions()
	driverOpts.Logger = log
	driver, err := sim.New(src, publisher, driverOpts)
	if err != nil {
		return nil, err
	}

	if hub != nil {
		srv := server.New(cfg.Monitor.Addr, hub, server.Info{
			RunID:       runID,
			Topic:       cfg.Transport.Topic,
			Transport:   cfg.Transport.Kind,
			SpeedFactor: cfg.Simulation.SpeedFactor,
			Started:     time.Now(),
		}, driver, log)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("monitor stopped")
			}
		}()
		log.Infof("monitor: http://localhost%s/", cfg.Monitor.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("shutting down monitor")
			}
		}()
	}

	log.WithFields(logrus.Fields{
		"input":        cfg.Simulation.Input,
		"speed_factor": cfg.Simulation.SpeedFactor,
	}).Info("starting simulation")

	summary, err := driver.Run(ctx)
	if err != nil {
		if pending := driver.Pending(); pending > 0 {
			log.WithField("pending", pending).Warn("records left unpublished")
		}
		return summary, err
	}
	log.WithFields(logrus.Fields{
		"records": summary.Records,
		"batches": summary.Batches,
	}).Info("simulation complete")
	return summary, nil
}

func printSummary(w io.Writer, s *sim.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Simulation Summary ---")
	fmt.Fprintf(w, "  Records:        %d\n", s.Records)
	fmt.Fprintf(w, "  Batches:        %d\n", s.Batches)
	fmt.Fprintf(w, "  Sleeps:         %d (%s)\n", s.Sleeps, s.Slept.Round(time.Millisecond))
	if !s.FirstObservation.IsZero() {
		fmt.Fprintf(w, "  Observations:   %s .. %s\n",
			s.FirstObservation.Format(time.DateTime), s.LastObservation.Format(time.DateTime))
	}
	fmt.Fprintf(w, "  Wall time:      %s\n", s.WallDuration.Round(time.Millisecond))
	return nil
}
