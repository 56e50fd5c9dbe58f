// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package favicon turns a logo into a round, multi-resolution ICO file.

# Conversion

Convert loads the source image, cuts a circle out of it (see Circular) and
stores the result as an ICO file holding one icon per requested size.

The circle is inscribed in the top-left square of the image, with the side
equal to the smaller image dimension. For square logos that is the whole
image. For wide or tall images the circle is not centered on the canvas;
this matches the icons that were already published and is kept as is.

# Sizes

Icons are produced for DefaultSizes unless Config.Sizes says otherwise. Sizes
that are larger than the source image, or outside the 1 to 256 pixel range
of the ICO format, are skipped. Every icon keeps the aspect ratio of the
source.
*/
package favicon

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.astrophena.name/roundicon/internal/logger"

	"github.com/disintegration/imaging"
	ico "github.com/sergeymakinen/go-ico"
	_ "golang.org/x/image/webp"
)

// maxSize is the largest dimension an ICO directory entry can describe.
const maxSize = 256

// Size is an icon resolution in pixels.
type Size struct {
	Width, Height int
}

func (s Size) String() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// DefaultSizes are the icon sizes embedded when none are configured.
var DefaultSizes = []Size{
	{256, 256},
	{128, 128},
	{64, 64},
	{48, 48},
	{32, 32},
	{16, 16},
}

// Possible errors, used in tests.
var (
	errSizeEmpty   = errors.New("empty size")
	errSizeInvalid = errors.New("invalid size")
	errNoSizes     = errors.New("no icon size fits the image")
)

// ParseSizes parses a comma-separated list of icon sizes. Each item is either
// a single number for a square icon ("48") or a width and height separated by
// "x" ("64x32").
func ParseSizes(s string) ([]Size, error) {
	var sizes []Size
	for item := range strings.SplitSeq(s, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			return nil, errSizeEmpty
		}
		ws, hs, found := strings.Cut(item, "x")
		if !found {
			hs = ws
		}
		w, werr := atoi(ws)
		h, herr := atoi(hs)
		if werr != nil || herr != nil {
			return nil, fmt.Errorf("%w %q", errSizeInvalid, item)
		}
		size := Size{Width: w, Height: h}
		if err := size.validate(); err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// atoi is strconv.Atoi restricted to plain decimal digits, without a sign.
func atoi(s string) (int, error) {
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s)
}

func (s Size) validate() error {
	if s.Width <= 0 || s.Height <= 0 || s.Width > maxSize || s.Height > maxSize {
		return fmt.Errorf("%w %v: each side must be between 1 and %d pixels", errSizeInvalid, s, maxSize)
	}
	return nil
}

// Config represents a conversion configuration.
type Config struct {
	// Sizes lists the icon sizes to embed. If nil, DefaultSizes is used.
	Sizes []Size
	// AutoOrient rotates and flips the source image according to its EXIF
	// orientation tag before converting.
	AutoOrient bool
	// Logf specifies a logger to use. If nil, log.Printf is used.
	Logf logger.Logf
}

func (c *Config) setDefaults() {
	if c.Sizes == nil {
		c.Sizes = DefaultSizes
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
}

// ConversionError records a failed conversion and the step that failed.
type ConversionError struct {
	Op   string // "open", "decode", "encode" or "write"
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Convert reads the image at input and writes a round ICO file to output.
// Any failure is returned as a *ConversionError. The output file is written
// only after the icon has been fully encoded.
func Convert(c *Config, input, output string) error {
	if c == nil {
		c = new(Config)
	}
	c.setDefaults()

	src, err := load(input, c.AutoOrient)
	if err != nil {
		return err
	}
	b := src.Bounds()
	c.Logf("loaded %s (%dx%d)", input, b.Dx(), b.Dy())

	var buf bytes.Buffer
	if err := Encode(&buf, Circular(src), c.Sizes, c.Logf); err != nil {
		return &ConversionError{Op: "encode", Path: output, Err: err}
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return &ConversionError{Op: "write", Path: output, Err: pathCause(err)}
	}
	c.Logf("wrote %s (%d bytes)", output, buf.Len())

	return nil
}

func load(path string, autoOrient bool) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConversionError{Op: "open", Path: path, Err: pathCause(err)}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, &ConversionError{Op: "decode", Path: path, Err: err}
	}
	return img, nil
}

// pathCause strips the *fs.PathError wrapper, since ConversionError already
// carries the path.
func pathCause(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

// Mask returns a width×height mask that is opaque (255) inside the circle
// inscribed in the top-left square of side min(width, height) and
// transparent (0) everywhere else. A pixel belongs to the circle when its
// center does.
func Mask(width, height int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	side := min(width, height)
	r := float64(side) / 2
	for y := range side {
		dy := float64(y) + 0.5 - r
		for x := range side {
			dx := float64(x) + 0.5 - r
			if dx*dx+dy*dy <= r*r {
				mask.Pix[y*mask.Stride+x] = 0xff
			}
		}
	}
	return mask
}

// Circular returns a copy of img with the alpha channel replaced by Mask.
// Colors are kept as is, so pixels inside the circle become fully opaque
// and pixels outside fully transparent.
func Circular(img image.Image) *image.NRGBA {
	b := img.Bounds()
	mask := Mask(b.Dx(), b.Dy())

	// Fill converts img to NRGBA and center-crops it to the mask dimensions.
	out := imaging.Fill(img, mask.Rect.Dx(), mask.Rect.Dy(), imaging.Center, imaging.Lanczos)
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.Pix[y*out.Stride+x*4+3] = mask.Pix[y*mask.Stride+x]
		}
	}
	return out
}

// Encode writes img to w as an ICO file with one icon per size. Repeated
// sizes are written once. Sizes larger than img, and sizes an ICO file can't
// hold, are logged and skipped. Each icon is img scaled down to fit the size,
// preserving the aspect ratio.
func Encode(w io.Writer, img image.Image, sizes []Size, logf logger.Logf) error {
	if logf == nil {
		logf = log.Printf
	}

	b := img.Bounds()
	var (
		seen   []Size
		frames []image.Image
	)
	for _, s := range sizes {
		if err := s.validate(); err != nil {
			logf("skipping icon: %v", err)
			continue
		}
		if slices.Contains(seen, s) {
			continue
		}
		seen = append(seen, s)
		if s.Width > b.Dx() || s.Height > b.Dy() {
			logf("skipping %v icon: source image is %dx%d", s, b.Dx(), b.Dy())
			continue
		}
		frames = append(frames, imaging.Fit(img, s.Width, s.Height, imaging.Lanczos))
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w (%dx%d)", errNoSizes, b.Dx(), b.Dy())
	}

	return ico.EncodeAll(w, frames)
}
