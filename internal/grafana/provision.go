package grafana

import (
	"context"
	"fmt"
	"log/slog"
)

// lokiCorrelationLink is a panel link that jumps to Explore filtered on the
// dashboard's correlation_id variable.
func lokiCorrelationLink(variable string) map[string]any {
	return map[string]any{
		"title": "View Related Logs",
		"url": `/explore?left=%7B"datasource":"Loki","queries":%5B%7B"expr":"correlationId%3D%5C"` +
			variable + `%5C""%7D%5D%7D`,
		"type": "link",
	}
}

// monitoringDashboard is the main service dashboard: 5xx rate, p95 latency,
// and a correlated-logs panel, all linkable through a correlation_id
// template variable.
func monitoringDashboard() map[string]any {
	return map[string]any{
		"dashboard": map[string]any{
			"title": "Edge API Monitoring",
			"uid":   "main-monitoring-dashboard",
			"panels": []map[string]any{
				{
					"title":   "HTTP Error Rate (5xx)",
					"type":    "graph",
					"gridPos": map[string]any{"h": 8, "w": 12, "x": 0, "y": 0},
					"targets": []map[string]any{{
						"expr":         `sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100`,
						"legendFormat": "5xx Error Rate",
						"refId":        "A",
					}},
					"links": []map[string]any{lokiCorrelationLink("$correlation_id")},
				},
				{
					"title":   "Request Latency",
					"type":    "graph",
					"gridPos": map[string]any{"h": 8, "w": 12, "x": 12, "y": 0},
					"targets": []map[string]any{{
						"expr":         `histogram_quantile(0.95, sum(rate(http_request_duration_seconds_bucket{route=~".*"}[5m])) by (le, route))`,
						"legendFormat": "95th Percentile - {{route}}",
						"refId":        "A",
					}},
					"links": []map[string]any{lokiCorrelationLink("$correlation_id")},
				},
				{
					"title":   "Correlated Logs and Traces",
					"type":    "logs",
					"gridPos": map[string]any{"h": 12, "w": 24, "x": 0, "y": 8},
					"targets": []map[string]any{
						{
							"expr":       `correlationId="{{correlation_id}}"`,
							"refId":      "A",
							"datasource": map[string]any{"type": "loki"},
						},
						{
							"expr":       `sum(count_over_time({app="edge-backend"}[5m]))`,
							"refId":      "B",
							"datasource": map[string]any{"type": "loki"},
						},
						{
							"expr":       `level="error"`,
							"refId":      "C",
							"datasource": map[string]any{"type": "loki"},
						},
					},
					"links": []map[string]any{{
						"title": "View Request Metrics",
						"url":   "/d/main-monitoring-dashboard/edge-api-monitoring?var-correlation_id=${__data.fields.correlation_id}",
						"type":  "link",
					}},
				},
			},
			"templating": map[string]any{
				"list": []map[string]any{{
					"name":    "correlation_id",
					"type":    "textbox",
					"label":   "Correlation ID",
					"current": map[string]any{"value": ""},
				}},
			},
			"links": []map[string]any{lokiCorrelationLink("${correlation_id}")},
		},
		"overwrite": true,
	}
}

// thresholdCondition is the classic-condition expression model comparing a
// query result against a threshold.
func thresholdCondition(queryRef string, threshold float64) map[string]any {
	return map[string]any{
		"conditions": []map[string]any{{
			"evaluator": map[string]any{"params": []float64{threshold}, "type": "gt"},
			"operator":  map[string]any{"type": "and"},
			"query":     map[string]any{"params": []string{queryRef}},
			"reducer":   map[string]any{"params": []any{}, "type": "last"},
			"type":      "query",
		}},
		"refId": "B",
	}
}

func prometheusThresholdRule(name, expr, description, summary string, threshold float64) map[string]any {
	return map[string]any{
		"name":      name,
		"condition": "B",
		"data": []map[string]any{
			{
				"refId":             "A",
				"queryType":         "range",
				"relativeTimeRange": map[string]any{"from": 600, "to": 0},
				"datasourceUid":     "prometheus",
				"model": map[string]any{
					"expr":          expr,
					"instant":       false,
					"intervalMs":    1000,
					"maxDataPoints": 43200,
					"refId":         "A",
				},
			},
			{
				"refId":         "B",
				"queryType":     "reduce",
				"reducer":       "last",
				"datasourceUid": "__expr__",
				"model":         thresholdCondition("A", threshold),
			},
		},
		"noDataState":  "NoData",
		"execErrState": "Error",
		"for":          "5m",
		"annotations": map[string]any{
			"description": description,
			"summary":     summary,
		},
	}
}

func errorRateAlert() map[string]any {
	return map[string]any{
		"name":     "High 5xx error rate",
		"folder":   "Alerts",
		"interval": "5m",
		"rules": []map[string]any{
			prometheusThresholdRule(
				"5xx error rate > 1%",
				`sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100`,
				"5xx error rate is above 1% for 5 minutes",
				"High error rate detected",
				1,
			),
		},
	}
}

func latencyAlert() map[string]any {
	return map[string]any{
		"name":     "High latency",
		"folder":   "Alerts",
		"interval": "1m",
		"rules": []map[string]any{
			prometheusThresholdRule(
				"Latency > 1s on key routes",
				`histogram_quantile(0.95, sum(rate(http_request_duration_seconds_bucket{route=~".*"}[5m])) by (le, route))`,
				"Request latency is above 1s for 5 minutes",
				"High latency detected",
				1,
			),
		},
	}
}

// logVolumeAlert compares current log volume against the preceding 5-minute
// window and fires on a >50% jump.
func logVolumeAlert() map[string]any {
	logVolumeExpr := `sum(count_over_time({app="edge-backend"}[5m]))`
	return map[string]any{
		"name":     "Log volume spike",
		"folder":   "Alerts",
		"interval": "1m",
		"rules": []map[string]any{{
			"name":      "Log volume spike > 50% compared to prior 5-min average",
			"condition": "C",
			"data": []map[string]any{
				{
					"refId":             "A",
					"queryType":         "range",
					"relativeTimeRange": map[string]any{"from": 600, "to": 300},
					"datasourceUid":     "loki",
					"model": map[string]any{
						"expr":    logVolumeExpr,
						"instant": false,
						"refId":   "A",
					},
				},
				{
					"refId":             "B",
					"queryType":         "range",
					"relativeTimeRange": map[string]any{"from": 300, "to": 0},
					"datasourceUid":     "loki",
					"model": map[string]any{
						"expr":    logVolumeExpr,
						"instant": false,
						"refId":   "B",
					},
				},
				{
					"refId":         "C",
					"queryType":     "math",
					"expression":    "($B - $A) / $A * 100",
					"datasourceUid": "__expr__",
				},
			},
			"noDataState":  "NoData",
			"execErrState": "Error",
			"for":          "5m",
			"conditions": []map[string]any{{
				"evaluator": map[string]any{"params": []float64{50}, "type": "gt"},
				"operator":  map[string]any{"type": "and"},
				"query":     map[string]any{"params": []string{"C"}},
				"reducer":   map[string]any{"params": []any{}, "type": "last"},
				"type":      "query",
			}},
			"annotations": map[string]any{
				"description": "Log volume increased by more than 50% compared to the previous 5 minutes",
				"summary":     "Log volume spike detected",
			},
		}},
	}
}

// ProvisionDashboards creates the service dashboards.
func ProvisionDashboards(ctx context.Context, client *Client, logger *slog.Logger) ([]APIResponse, error) {
	var results []APIResponse
	for _, model := range []map[string]any{monitoringDashboard()} {
		resp, err := client.CreateDashboard(ctx, model)
		if err != nil {
			return results, fmt.Errorf("create dashboard: %w", err)
		}
		logger.Info("dashboard provisioned", slog.Any("uid", resp["uid"]))
		results = append(results, resp)
	}
	return results, nil
}

// ProvisionAlerts creates the alert rule groups: 5xx error rate, request
// latency, and log volume spike.
func ProvisionAlerts(ctx context.Context, client *Client, logger *slog.Logger) ([]APIResponse, error) {
	var results []APIResponse
	for _, rule := range []map[string]any{errorRateAlert(), latencyAlert(), logVolumeAlert()} {
		resp, err := client.CreateAlertRule(ctx, rule)
		if err != nil {
			return results, fmt.Errorf("create alert rule %q: %w", rule["name"], err)
		}
		logger.Info("alert rule provisioned", slog.Any("name", rule["name"]))
		results = append(results, resp)
	}
	return results, nil
}

// DefaultDatasources returns the Prometheus and Loki datasource definitions
// the dashboards and alerts expect.
func DefaultDatasources(prometheusURL, lokiURL string) []Datasource {
	return []Datasource{
		{Name: "Prometheus", Type: "prometheus", URL: prometheusURL, Access: "proxy", IsDefault: true},
		{Name: "Loki", Type: "loki", URL: lokiURL, Access: "proxy"},
	}
}

// ProvisionDatasources registers each datasource and health-checks the ones
// Grafana assigned an id to.
func ProvisionDatasources(ctx context.Context, client *Client, datasources []Datasource, logger *slog.Logger) ([]APIResponse, error) {
	var results []APIResponse
	for _, ds := range datasources {
		resp, err := client.CreateDatasource(ctx, ds)
		if err != nil {
			return results, fmt.Errorf("create datasource %q: %w", ds.Name, err)
		}
		results = append(results, resp)
		logger.Info("datasource provisioned", slog.String("name", ds.Name))

		id, ok := resp["id"].(float64)
		if !ok {
			continue
		}
		if _, err := client.TestDatasource(ctx, int(id)); err != nil {
			return results, fmt.Errorf("health check datasource %q: %w", ds.Name, err)
		}
		logger.Info("datasource healthy", slog.String("name", ds.Name))
	}
	return results, nil
}
