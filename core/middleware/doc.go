// Package middleware groups the HTTP middleware of the API server.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header. Disabled when
//     no key is configured.
//   - rayid: assigns every request a ray id, stored in the fiber locals under
//     "ray_id" and echoed in the X-Ray-ID response header for tracing.
//
// Register rayid first so every later log line carries the id.
package middleware
