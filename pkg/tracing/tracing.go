/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package tracing wires up OpenTelemetry trace export over OTLP/gRPC, used
// strictly as outbound observability transport — never as the consolidator's
// own RPC mechanism, which is the compute.Client interface. Grounded on the
// OPA project's internal/distributedtracing package, trimmed to the gRPC
// exporter path this repo needs.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config controls whether and how spans are exported.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address (host:port). Tracing is
	// disabled when Endpoint is empty.
	Endpoint string
	// Insecure disables transport security on the gRPC connection.
	Insecure bool
	// ServiceName identifies this process in exported spans.
	ServiceName string
}

// noop is returned by Init when Config.Endpoint is empty: a Tracer that
// never exports, and a no-op shutdown.
func noop() (trace.Tracer, func(context.Context) error) {
	return otel.Tracer("consolidator"), func(context.Context) error { return nil }
}

// Init builds an OTLP/gRPC exporter and registers it as the global
// TracerProvider, returning a Tracer for the consolidator's own spans and a
// shutdown function the caller must invoke before exiting.
func Init(ctx context.Context, cfg Config) (trace.Tracer, func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		tracer, shutdown := noop()
		return tracer, shutdown, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("starting OTLP/gRPC exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("building trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return provider.Tracer("consolidator"), provider.Shutdown, nil
}
