// Package http exposes songvault over HTTP.
//
// The handler is a thin mapping layer: it parses requests, calls the Service
// and turns results and errors into JSON responses.
//
// # Routes
//
//	POST   /songs/upload                      multipart: file, name, artist, year
//	GET    /songs                             every song record
//	GET    /songs/{id}                        one song record
//	DELETE /songs/{id}                        blob, then record
//	GET    /songs/songs/download/{fileName}   raw blob as an attachment
//	GET    /healthz                           liveness
//	GET    /metrics                           Prometheus, when HandlerConfig.Metrics is set
//
// # Errors
//
// Errors are written as {"error": "<code>", "message": "<text>"}:
//
//	invalid_input       400  malformed id, missing fields, bad year, empty file
//	not_found           404  unknown song id or storage name
//	payload_too_large   413  body over HandlerConfig.MaxUploadBytes
//	internal_error      500  storage failures, details only in the server log
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    MaxUploadBytes: 50 << 20,
//	    Metrics:        metrics.New(),
//	}, service)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// The service parameter must implement the Service interface; *songvault.SongService does.
package http
