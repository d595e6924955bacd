// Package http implements the HTTP request handlers for the cause-list
// web service. It is a thin layer between transport and business logic:
// handlers parse and validate requests, delegate to services, and
// format responses.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Scraper
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// Scrape submissions are asynchronous: the handler enqueues a job and
// returns 202 with the job ID; progress and exported records flow back
// to the submitting client over its WebSocket connection, matched by
// the "id" cookie issued by the EnsureClientID middleware.
package http
