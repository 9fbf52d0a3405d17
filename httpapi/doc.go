// Package httpapi serves composed frog prompts and the published-frog
// gallery over HTTP.
//
// Routes:
//
//	GET  /prompt                           a fresh prompt, JSON or text/plain
//	GET  /frogs?cursor=&limit=             gallery page, newest first
//	GET  /frogs/{id}                       one gallery entry
//	POST /frogs                            publish an entry (bearer token required)
//	GET  /schema/{name}                    JSON Schema for prompt, entry, page or categories
//	GET  /healthz                          liveness
//	GET  /.well-known/oauth-protected-resource
//	                                       RFC 9728 metadata when publishing is enabled
//
// Errors are written as {"error":{"code":<status>,"message":"..."}}.
// Publishing is disabled (403) unless an Authenticator is configured.
package httpapi
