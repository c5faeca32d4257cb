// Various image functions the other packages share in common.
//
// Note that all functions here use image.NRGBA, as this is what the package we use mostly depends on for
// best performance.
//
// If switching away from "github.com/disintegration/imaging", this output may have to be changed.
//
// To make this easier, the ImageToPrefer() function exists.
//
// This changes a image.Image to whatever internally we prefer, without the caller having to care.
package image

import (
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// func LoadReader {{{

// Given an io.Reader attempt to load an image from it.
//
// The image will be rotated automatically if needed.
func LoadReader(r io.Reader) (image.Image, error) {
	// As this uses image.Decode(), this will still work with any format registered with image, such as WebP above.
	// Though the AutoOrientation only works with JPEG, even though the other formats do support EXIF.
	return imaging.Decode(r, imaging.AutoOrientation(true))
} // }}}

// func Open {{{

// Given a file name attempt to load an image from it.
//
// The image will be rotated automatically if needed.
func Open(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	img, err := LoadReader(f)
	f.Close()

	return img, err
} // }}}

// func Config {{{

// Reads just the dimensions of an image file, no pixel decode.
//
// Anything registered with image works, so JPEG, PNG, GIF and WebP.
func Config(file string) (image.Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return image.Config{}, err
	}

	cfg, _, err := image.DecodeConfig(f)
	f.Close()

	return cfg, err
} // }}}

// func Resize {{{

// Resizes an image to the exact dimensions given.
//
// I compared the Go packages to handle this -
//
//	github.com/disintegration/imaging
//	github.com/nfnt/resize
//
// On x86 and amd64 I got one result, but on ARMv5 it was a whole other story.
// imaging, which I prefered on x86, worked horribly on ARMv5.
// While the rotation for imaging worked a whole lot better, Resize took far, far longer.
//
// So I am sticking with nfnt for resizing, as it works best across all platforms I care about.
//
// Difference? 1s vs 10m for 1 image, and 2s vs. 22m for another.
func Resize(img image.Image, size image.Point) image.Image {
	return resize.Resize(uint(size.X), uint(size.Y), img, resize.Lanczos3)
} // }}}

// func SaveImageJPEG {{{

func SaveImageJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(95))
} // }}}

// func ImageToPrefer {{{

// Converts a provided image.Image to image.NRGBA format.
func ImageToPrefer(in image.Image) *image.NRGBA {

	// First basic check - Is the image already a NRGBA?
	if nrgba, ok := in.(*image.NRGBA); ok {
		// Yep, no conversion needed then.
		return nrgba
	}

	// So we have to convert. Doing this all ourselves is a pain in the ass, so rather we let Go do it.
	// We create a new image.NRGBA of the same size and copy the pixels to it letting Go handle all the converisions.
	//
	// Get the size of the original image.
	bnds := in.Bounds()

	// Now make a new NRGBA image with that size.
	nrgba := image.NewNRGBA(bnds)

	// Copy the source to the destination.
	draw.Draw(nrgba, bnds, in, image.ZP, draw.Src)

	return nrgba
} // }}}
