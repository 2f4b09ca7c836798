// Package imaging post-processes the raster screenshots produced by the
// diagram renderer.
//
// The renderer hands back PNG bytes. This package decodes them, reports their
// geometry for diagnostics, optionally flattens transparent pixels onto an
// opaque background colour and shrinks oversized screenshots so they fit a
// configured bounding box, then re-encodes the result as PNG.
//
// # Coordinate System
//
// Dimensions are reported in pixels with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Background Colours
//
// Background colours accept the forms the renderer understands:
//   - "transparent" (no flattening is performed)
//   - hex literals "#rgb" and "#rrggbb"
//   - a small set of CSS colour names ("white", "black", ...)
//
// Any other value is passed through to the renderer untouched and is ignored
// by post-processing.
//
// # Thread Safety
//
// All functions are stateless and can be called concurrently.
package imaging
