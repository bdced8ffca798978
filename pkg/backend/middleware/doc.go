// Package middleware provides HTTP middleware components for the relay server.
// It includes middleware for CORS, request logging, request ID tracking and panic
// recovery. The logging wrapper passes Flush and Hijack through so event streams
// and WebSocket upgrades work behind it.
package middleware
