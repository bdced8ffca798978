// Package backendtypes defines types for relay server configuration and API communication.
//
// This package provides shared type definitions used by the backend package and the
// ai-relay command. It separates type definitions from implementation to allow clean
// imports without circular dependencies.
//
// # Configuration Types
//
// RelayConfig and related types define how the relay is configured:
//
//   - ServerConfig: HTTP server settings (host, port, timeouts)
//   - LoggingConfig: Logging level
//   - CORSConfig: Cross-origin resource sharing settings
//   - StaticConfig: Frontend bundle serving
//   - ProxyConfig: Outbound HTTP/HTTPS proxy endpoints
//   - CollaboratorConfig: Chat and image endpoints
//
// # Request and Response Types
//
// ChatRequest and ImageRequest are the bodies accepted by the API. Responses are flat
// JSON objects: ErrorResponse, ImageResponse, HealthResponse, VersionResponse and
// StatusResponse.
//
// # Usage
//
//	cfg, err := backendtypes.LoadConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package backendtypes
