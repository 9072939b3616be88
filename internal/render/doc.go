// Package render provides the targets diagram placeholders are rendered
// into after conversion: an in-memory document patched with SVG fetched
// from a Kroki server, and a headless browser page driving the diagram
// library directly. Deferred is the task queue that hands placeholders
// to a target once its markup is in place.
package render
