// Package pipeline implements the note-to-HTML conversion pipeline.
//
// The notes engine runs in fixed passes:
//   - Line ending normalization and diagram extraction
//   - A line pass that nests lists and accumulates tables
//   - An ordered chain of inline rules
//   - A cleanup pass that merges adjacent lists and draws task boxes
//
// Diagram blocks are replaced by placeholder elements whose rendering is
// handed to a DiagramRenderer through a Scheduler, so conversion itself
// never blocks on a diagram. A Goldmark backend produces the same fragment
// shape for callers who want CommonMark semantics instead.
//
// Document assembly (theme CSS, sanitizing, the client-side diagram
// script) also lives here. Browser and network rendering targets live in
// internal/render.
package pipeline
