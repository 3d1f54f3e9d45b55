// Package internaldefs holds the stable metric name, help text, and bucket
// definitions shared by the session metric exporters.
//
// Both the Prometheus and OTel exporters read these tables so scraped metric
// names and histogram boundaries never drift between backends. A new session
// metric is added here once and picked up by every exporter.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
