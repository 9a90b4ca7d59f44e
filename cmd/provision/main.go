// Command provision pushes the monitoring setup to a Grafana instance:
// datasources, the main service dashboard, and the alert rules.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ainative/edge-backend/internal/config"
	"github.com/ainative/edge-backend/internal/grafana"
)

func main() {
	var (
		configPath      = flag.String("config", "config.yaml", "path to the configuration file")
		grafanaURL      = flag.String("grafana-url", "", "Grafana base URL (overrides config)")
		apiKey          = flag.String("api-key", "", "Grafana API key (overrides config)")
		prometheusURL   = flag.String("prometheus-url", "http://prometheus:9090", "Prometheus datasource URL")
		lokiURL         = flag.String("loki-url", "http://loki:3100", "Loki datasource URL")
		skipDatasources = flag.Bool("skip-datasources", false, "skip datasource provisioning")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	url := *grafanaURL
	if url == "" {
		url = cfg.Grafana.URL
	}
	key := *apiKey
	if key == "" {
		key = cfg.Grafana.APIKey
	}
	if url == "" || key == "" {
		log.Fatal("Grafana URL and API key are required (flags or config)")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := grafana.NewClient(url, key)

	if !*skipDatasources {
		datasources := grafana.DefaultDatasources(*prometheusURL, *lokiURL)
		if _, err := grafana.ProvisionDatasources(ctx, client, datasources, logger); err != nil {
			log.Fatalf("Datasource provisioning failed: %v", err)
		}
	}

	if _, err := grafana.ProvisionDashboards(ctx, client, logger); err != nil {
		log.Fatalf("Dashboard provisioning failed: %v", err)
	}

	if _, err := grafana.ProvisionAlerts(ctx, client, logger); err != nil {
		log.Fatalf("Alert provisioning failed: %v", err)
	}

	logger.Info("Grafana provisioning complete")
}
