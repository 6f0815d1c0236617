// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header sent by the client or
// generates a UUID, stores it in the request context and echoes it back in
// the response. FromContext reads it back and LoggerExtractor feeds it into
// the structured logger.
package requestid
