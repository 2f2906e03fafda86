package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pacslab/faas-sim/internal/worker"
)

var (
	workerNATSUrl string
	workerSubject string
	workerCount   int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a pool of simulation workers listening for jobs over NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := worker.Config{NATSUrl: workerNATSUrl, Subject: workerSubject, Count: workerCount}
		w, err := worker.New(cfg, logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return w.Run(ctx)
	},
}

func init() {
	workerCmd.Flags().StringVar(&workerNATSUrl, "nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	workerCmd.Flags().StringVar(&workerSubject, "subject", "faas-sim.jobs", "NATS subject to listen on")
	workerCmd.Flags().IntVar(&workerCount, "count", 4, "Number of concurrent worker goroutines")
}
