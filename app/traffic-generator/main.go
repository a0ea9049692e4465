package main

import (
	"aspectInsight/pkg/config"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	count   int
	delay   time.Duration
	topK    int

	rootCmd = &cobra.Command{
		Use:   "traffic-generator",
		Short: "Replays predict requests for random listings against a running server",
		Long: `traffic-generator loads both model datasets, samples listing ids from
their union and posts one /api/v1/predict request per sampled id.`,
		RunE: runTraffic,
	}
)

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "server base URL")
	rootCmd.Flags().IntVar(&count, "count", 50, "number of listings to request")
	rootCmd.Flags().DurationVar(&delay, "delay", 100*time.Millisecond, "pause between requests")
	rootCmd.Flags().IntVar(&topK, "top-k", 3, "top_k sent with each request")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func runTraffic(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	g := &generator{
		out:     cmd.OutOrStdout(),
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		topK:    topK,
		delay:   delay,
	}

	ids, err := g.loadListings(cfg.Dataset.BaselinePath(), cfg.Dataset.AdvancedPath())
	if err != nil {
		return err
	}

	g.run(cmd.Context(), sample(ids, count, nil))
	return nil
}
