// Package daemon coordinates the long-running gamearr process.
//
// It wires configuration, the store and the download engine into a single
// lifecycle with flock-based locking to prevent multiple instances. While
// running it triggers a reconciliation pass every workflow.reconcile_interval
// seconds, tracks download client connectivity across passes, and serves
// /healthz, /metrics and a small bearer-protected JSON API on paths.api_bind.
//
// Keep orchestration logic here: matching and status transitions live in
// internal/downloads while the daemon focuses on startup, shutdown and
// scheduling.
package daemon
