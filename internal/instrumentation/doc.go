// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the gdrive-mcp server.
//
// # Metrics
//
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls by tool and status
//   - google_api_operations_total, google_api_operation_duration_seconds: Drive and Docs
//     API calls by service, operation and status
//   - http_requests_total, http_request_duration_seconds: streamable HTTP transport
//   - markdown_conversions_total, markdown_instructions: converter output size
//   - forwarded_token_injections_total: tokens accepted from an authenticating proxy
//
// Metrics are exported through Prometheus (default), OTLP over HTTP or stdout.
// Tracing is off unless TRACING_EXPORTER is set to otlp or stdout.
//
// # Configuration
//
// DefaultConfig reads:
//
//	INSTRUMENTATION_ENABLED      true
//	METRICS_EXPORTER             prometheus | otlp | stdout
//	TRACING_EXPORTER             none | otlp | stdout
//	OTEL_EXPORTER_OTLP_ENDPOINT  host:port of the collector
//	OTEL_EXPORTER_OTLP_INSECURE  false
//	OTEL_TRACES_SAMPLER_ARG      0.1
//	METRICS_DETAILED_LABELS      false
//	AUDIT_LOGGING_ENABLED        true
//	AUDIT_LOGGING_INCLUDE_PII    false
package instrumentation
