// Package proxy provides an HTTP proxy that hides the upstream API key.
//
// Clients post chat requests to the proxy; the proxy fills in defaults,
// attaches the server-held key as a bearer token and forwards the request
// to an OpenAI-compatible chat-completions API (OpenRouter by default).
// The key never appears in responses, errors or logs.
//
// # Endpoints
//
//	GET  /health    {"status":"healthy"}
//	POST /api/chat  {"messages":[...], "model"?, "temperature"?, "max_tokens"?}
//
// A successful chat response is the upstream body byte for byte. Failures
// are JSON objects:
//
//	400 {"error":"Invalid request"}          body is not an object with messages
//	413 {"error":"Request too large"}        body over 1 MiB
//	500 {"error":"Server not configured"}    no API key
//	xxx {"error":"API error","details":...}  upstream returned status xxx,
//	                                         details cut at 10 MiB
//	500 {"error":"<message>"}                anything else
//
// # Configuration
//
//	cfg := proxy.ConfigFrom(appConfig.Proxy)
//	srv, err := proxy.NewServer(cfg)
//	if err != nil {
//	    return err
//	}
//	go srv.Start()
//	defer srv.Shutdown(ctx)
//
// # Audit Log
//
// When AuditLogPath is set, every chat request is recorded as a JSON line
// (request ID, status, model, sizes, timing). The file rotates at 50 MiB,
// keeping three old files.
package proxy
