// Package quantaterm provides the GPU text-rendering pipeline of the
// QuantaTerm terminal emulator.
//
// The pipeline turns a grid of character cells into positioned, cached
// glyph images on a GPU-resident texture atlas and decides, frame to
// frame, which screen regions actually need to be redrawn.
//
// Sub-packages, in data-flow order:
//   - grid: cell-grid data model handed in by the terminal collaborator
//   - dirty: change detection and region coalescing between frames
//   - font: font discovery, loading, and fallback resolution
//   - shape: Unicode-aware text shaping with multi-level caching
//   - atlas: glyph rasterization and shelf-packed texture atlas
//   - gpu: generic texture/draw-call abstraction over the GPU backend
//   - render: per-frame orchestration of the above
//
// The root package carries only cross-cutting concerns: the shared
// slog-based logger (see SetLogger).
package quantaterm
