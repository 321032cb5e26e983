package field

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	// Wind rasters are usually PNG; these cover the other formats tools export.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Meta is the JSON sidecar describing a wind raster.
type Meta struct {
	Source string `json:"source,omitempty"`
	Date   string `json:"date,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bounds
}

// LoadMeta reads a wind metadata JSON file.
func LoadMeta(path string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading wind metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing wind metadata: %w", err)
	}
	return m, nil
}

// LoadImage decodes a raster image from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wind image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding wind image: %w", err)
	}
	return img, nil
}

// FromImage builds a field from decoded pixels. The image must have exactly the
// dimensions declared in meta.
func FromImage(meta Meta, img image.Image) (*VectorField, error) {
	b := img.Bounds()
	if b.Dx() != meta.Width || b.Dy() != meta.Height {
		return nil, fmt.Errorf("%w: image is %dx%d, metadata declares %dx%d",
			ErrInvalidField, b.Dx(), b.Dy(), meta.Width, meta.Height)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != meta.Width*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, meta.Width, meta.Height))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}
	return New(meta.Width, meta.Height, meta.Bounds, nrgba.Pix)
}

// Load reads a metadata file and its raster and returns the validated field.
func Load(metaPath, imagePath string) (*VectorField, error) {
	meta, err := LoadMeta(metaPath)
	if err != nil {
		return nil, err
	}
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}
	return FromImage(meta, img)
}

// Image returns the raster as an NRGBA image sharing the field's pixels.
func (f *VectorField) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Meta returns the metadata describing this field.
func (f *VectorField) Meta() Meta {
	return Meta{Width: f.Width, Height: f.Height, Bounds: f.Bounds}
}

// Save writes the raster as PNG and its metadata as JSON.
func (f *VectorField) Save(metaPath, imagePath string, meta Meta) error {
	meta.Width, meta.Height, meta.Bounds = f.Width, f.Height, f.Bounds

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wind metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("writing wind metadata: %w", err)
	}

	out, err := os.Create(imagePath)
	if err != nil {
		return fmt.Errorf("creating wind image: %w", err)
	}
	if err := png.Encode(out, f.Image()); err != nil {
		out.Close()
		return fmt.Errorf("encoding wind image: %w", err)
	}
	return out.Close()
}
