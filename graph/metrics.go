// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("codecanvas.graph")
	meter  = otel.Meter("codecanvas.graph")
)

var (
	buildLatency       metric.Float64Histogram
	buildTotal         metric.Int64Counter
	nodesCreated       metric.Int64Histogram
	edgesCreated       metric.Int64Histogram
	importEdgesCreated metric.Int64Counter
	importEdgesFailed  metric.Int64Counter
	containsEdges      metric.Int64Counter
	placeholderNodes   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"graph_build_duration_seconds",
			metric.WithDescription("Duration of graph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"graph_build_total",
			metric.WithDescription("Total number of graph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"graph_nodes_created",
			metric.WithDescription("Number of nodes created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"graph_edges_created",
			metric.WithDescription("Number of edges created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		importEdgesCreated, err = meter.Int64Counter(
			"graph_import_edges_created_total",
			metric.WithDescription("Total IMPORT edges created"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		importEdgesFailed, err = meter.Int64Counter(
			"graph_import_edges_failed_total",
			metric.WithDescription("Total IMPORT edges that failed to resolve or create"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		containsEdges, err = meter.Int64Counter(
			"graph_contains_edges_created_total",
			metric.WithDescription("Total CONTAINS edges created"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		placeholderNodes, err = meter.Int64Counter(
			"graph_placeholder_nodes_created_total",
			metric.WithDescription("Total synthetic external-module placeholder nodes created"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(nodeCount))
		edgesCreated.Record(ctx, int64(edgeCount))
	}
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("graph.file_count", fileCount),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, nodeCount, edgeCount int, incomplete bool) {
	span.SetAttributes(
		attribute.Int("graph.node_count", nodeCount),
		attribute.Int("graph.edge_count", edgeCount),
		attribute.Bool("graph.incomplete", incomplete),
	)
}

// recordImportEdgeMetrics records metrics for import edge extraction.
func recordImportEdgeMetrics(ctx context.Context, created, failed int) {
	if err := initMetrics(); err != nil {
		return
	}

	importEdgesCreated.Add(ctx, int64(created))
	importEdgesFailed.Add(ctx, int64(failed))
}

// recordContainsEdgeMetrics records metrics for containment edge extraction.
func recordContainsEdgeMetrics(ctx context.Context, created int) {
	if err := initMetrics(); err != nil {
		return
	}

	containsEdges.Add(ctx, int64(created))
}

// recordPlaceholderMetrics records metrics for external-module placeholder creation.
func recordPlaceholderMetrics(ctx context.Context, created int) {
	if err := initMetrics(); err != nil {
		return
	}

	placeholderNodes.Add(ctx, int64(created))
}
