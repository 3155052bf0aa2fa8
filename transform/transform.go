// Package transform holds the per-frame functions the pipeline applies.
package transform

import (
	"image"

	"vidstego/video"
)

// Identity returns every frame unmodified. The encode path uses it: the
// payload is associated with the output file, not embedded in pixels.
func Identity() video.Transform {
	return func(frame *image.RGBA) *image.RGBA { return frame }
}
