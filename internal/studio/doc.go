// Package studio provides an HTTP client for the creative-asset review backend.
//
// # Overview
//
// The backend stores projects and everything reviewers work on inside them:
// tasks with subtasks, character reference sheets, AI review findings and batch
// processing records. framer reads all of these and writes exactly one thing
// back: the bounding box of a review finding.
//
// # Architecture
//
//   - client.go: HTTP client, request construction and endpoint methods
//   - errors.go: APIError and helpers for classifying HTTP failures
//   - types.go: Data structures mirroring the backend's JSON, plus BoundingBox geometry
//
// # API Endpoints
//
//   - GET   /api/health
//   - GET   /api/projects
//   - GET   /api/projects/{id}/tasks
//   - GET   /api/projects/{id}/characters
//   - GET   /api/projects/{id}/findings
//   - GET   /api/projects/{id}/batches
//   - PATCH /api/findings/{id}/bbox
//
// List endpoints answer with {"items": [...]}.
//
// # Request Handling
//
// Every request carries Accept: application/json, a User-Agent, and a fresh
// X-Request-ID so backend logs can be correlated with framer's own log file.
// When a token is configured it is sent as a bearer credential. Writes go
// through a token-bucket limiter (golang.org/x/time/rate) so that a burst of
// finished edits cannot flood the backend.
//
// # Error Handling
//
// Status codes of 400 and above become *APIError. Its message is taken from
// {"detail"}, {"error"} or {"message"} when the body is JSON, and from the
// raw body otherwise. Transport and decoding failures are wrapped with context
// ("execute request: ...", "decode response: ..."). The client never retries.
// The poller and the edit session decide what a failure means.
//
// # Geometry
//
// BoundingBox uses normalized image coordinates: (0,0) is the top-left corner
// and every edge lies in [0,1]. Translate, Resize and Clamp always return a box
// inside the image. UpdateFindingBox refuses boxes that are not Valid before
// sending anything.
package studio
