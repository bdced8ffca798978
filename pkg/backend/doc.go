// Package backend provides the HTTP server of the relay.
//
// The server exposes a streaming chat endpoint (Server-Sent Events at
// /api/chat and WebSocket at /api/chat/ws), an image endpoint returning data
// URLs, health and status reporting, and optionally the single-page frontend.
//
// # Architecture
//
// The backend package is organized into sub-packages:
//
//   - handlers: endpoint handlers, the SSE and WebSocket sinks, static serving
//   - middleware: recovery, request logging, request IDs and CORS
//
// # Example
//
//	config, _ := backendtypes.LoadConfig("config.yaml")
//	server := backend.NewServer(config, backend.Dependencies{
//	    Chat:  chatProvider,
//	    Image: imageGenerator,
//	})
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err := server.ListenAndServeWithGracefulShutdown(ctx.Done())
package backend
