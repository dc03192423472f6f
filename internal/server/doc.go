// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server runs wizard sessions over TCP and exposes their metrics.
//
// Every accepted connection gets its own Session from a SessionFactory and is
// tracked by a session.Manager, which ends sessions that stay idle too long.
// A separate HTTP listener serves Prometheus metrics and a health check.
//
// # Endpoints
//
//   - GET /metrics  - Prometheus exposition
//   - GET /healthz  - live session count
//   - GET /sessions - live session IDs, start times and idle times
//
// # Key Types
//
//   - Server: TCP accept loop with graceful shutdown
//   - SessionFactory / Session: the per-connection shell, supplied by the caller
//
// # Usage
//
//	srv := server.New(factory, server.Config{Addr: "127.0.0.1:7070"})
//	go server.ServeHTTP(ctx, "127.0.0.1:9090", server.NewRouter(reg, srv.Manager(), logger), logger)
//	if err := srv.Serve(ctx); err != nil {
//		return err
//	}
package server
