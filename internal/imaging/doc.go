// Package imaging implements the avatar sprite-sheet pipeline.
//
// A generated sheet holds a 2x2 grid of avatar frames. The stages are:
//
//  1. ImageCache.Load resolves a path or URL into a Bitmap.
//  2. ExtractBackground punches out a light or dark background by flood fill
//     seeded from the sheet's border.
//  3. SliceFrames cuts the sheet into four frames and rescales them with
//     nearest-neighbour sampling.
//  4. Compositor.Composite draws an optional caption with an outline halo.
//  5. ExportFrames encodes each frame as PNG with a suggested filename.
//
// GridOverlay draws the slicing boundaries on a copy of the sheet so the cut
// can be checked before slicing. SuggestBackground and DominantColors
// describe a freshly loaded sheet; ImageCache.Info reports both.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Rectangles are min-inclusive and
// max-exclusive.
//
// # Pixel Format
//
// A Bitmap stores non-premultiplied RGBA bytes, the same layout as
// image.NRGBA. Clearing a pixel's alpha never changes its colour channels.
//
// # Thread Safety
//
// Every stage is a pure function over its inputs and writes only to a fresh
// buffer, so frames can be processed concurrently. ImageCache and Compositor
// are safe for concurrent use.
//
// # Error Handling
//
// Stages fail with ErrInvalidBitmap, ErrInvalidParameter (as a *ParamError
// naming the parameter) or ErrEncodingFailure. Match them with errors.Is.
package imaging
