// Package handlers provides HTTP request handlers for the relay server.
// It includes the chat stream (SSE and WebSocket), image forwarding, health and
// status reporting and single-page frontend serving, along with the flat JSON
// response helpers they share.
package handlers
