package pfv

import (
	"image"

	"golang.org/x/image/draw"
)

// clearY and clearUV are the neutral fill values for newly constructed
// planes: black luma, neutral (no color) chroma.
const (
	clearY  = 0
	clearUV = 128
)

// Frame holds one YUV 4:2:0 video frame: a full-resolution luma plane and
// two chroma planes at half resolution in each axis.
type Frame struct {
	Y, U, V Plane
}

// NewFrame allocates a frame at exactly width x height (the "display"
// shape). Chroma planes are filled with neutral gray; luma is filled black.
func NewFrame(width, height int) Frame {
	return Frame{
		Y: NewPlane(width, height, clearY),
		U: NewPlane((width+1)/2, (height+1)/2, clearUV),
		V: NewPlane((width+1)/2, (height+1)/2, clearUV),
	}
}

// NewPaddedFrame allocates a frame whose plane dimensions are each rounded
// up independently to a multiple of 16 (the "padded" shape used internally
// by the macroblock codec). The plane codec treats every plane the same
// way regardless of luma/chroma, so chroma is padded to 16 in its own
// (already half-resolution) coordinate space rather than inheriting luma's
// padding.
func NewPaddedFrame(width, height int) Frame {
	cw, ch := (width+1)/2, (height+1)/2
	return Frame{
		Y: NewPlane(padTo16(width), padTo16(height), clearY),
		U: NewPlane(padTo16(cw), padTo16(ch), clearUV),
		V: NewPlane(padTo16(cw), padTo16(ch), clearUV),
	}
}

func padTo16(n int) int {
	return (n + 15) &^ 15
}

// ToImage converts the frame to a standard library image.YCbCr, useful for
// comparing against golden PNG fixtures in tests or for display.
func (f *Frame) ToImage() *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, f.Y.Width, f.Y.Height), image.YCbCrSubsampleRatio420)
	copy(img.Y, f.Y.Data)
	copy(img.Cb, f.U.Data)
	copy(img.Cr, f.V.Data)
	return img
}

// RGBA renders the frame to an RGBA image via golang.org/x/image/draw,
// using the standard library's YCbCr-to-RGB color conversion.
func (f *Frame) RGBA() *image.RGBA {
	ycbcr := f.ToImage()
	out := image.NewRGBA(ycbcr.Bounds())
	draw.Draw(out, out.Bounds(), ycbcr, ycbcr.Bounds().Min, draw.Src)
	return out
}

// FrameFromImage builds a display-shaped Frame from an image.YCbCr, used by
// tests to construct synthetic input frames from arbitrary source images.
func FrameFromImage(img *image.YCbCr) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	copy(f.Y.Data, img.Y)
	copy(f.U.Data, img.Cb)
	copy(f.V.Data, img.Cr)
	return f
}

// ScaleTo resamples the frame to width x height, scaling each plane
// independently with a bilinear scaler. Used by tests to build synthetic
// frames at arbitrary resolutions from a single source image instead of
// hand-rolling a resampler.
func (f *Frame) ScaleTo(width, height int) Frame {
	out := NewFrame(width, height)
	scalePlane(&out.Y, &f.Y)
	scalePlane(&out.U, &f.U)
	scalePlane(&out.V, &f.V)
	return out
}

// scalePlane wraps both planes as image.Gray (a plane's layout is exactly a
// grayscale image) so x/image/draw can do the resampling.
func scalePlane(dst, src *Plane) {
	srcImg := &image.Gray{Pix: src.Data, Stride: src.Width, Rect: image.Rect(0, 0, src.Width, src.Height)}
	dstImg := &image.Gray{Pix: dst.Data, Stride: dst.Width, Rect: image.Rect(0, 0, dst.Width, dst.Height)}
	draw.BiLinear.Scale(dstImg, dstImg.Rect, srcImg, srcImg.Rect, draw.Src, nil)
}

// blocksWide and blocksHigh return the macroblock grid dimensions for a
// plane whose Width/Height are already multiples of 16.
func blocksWide(width int) int  { return width / 16 }
func blocksHigh(height int) int { return height / 16 }
