// Package server wires the Echo HTTP server: REST handlers for auth, reports,
// predictions and feedback, the three WebSocket endpoints (report feed,
// prediction feed, notifications), health checks and metrics.
package server
