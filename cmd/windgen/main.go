// Wind field generator - writes a synthetic wind raster and its metadata.
//
// Usage: go run ./cmd/windgen -kind vortex -out winds/vortex
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/field"
)

func main() {
	kindNames := make([]string, len(field.Kinds))
	for i, k := range field.Kinds {
		kindNames[i] = string(k)
	}

	kindName := flag.String("kind", string(field.KindVortex), "Pattern: "+strings.Join(kindNames, ", "))
	width := flag.Int("width", 360, "Raster width")
	height := flag.Int("height", 180, "Raster height")
	out := flag.String("out", "", "Output path prefix (writes <out>.json and <out>.png)")
	preview := flag.Bool("preview", false, "Also write <out>_speed.png colored by the default ramp")
	flag.Parse()

	if *out == "" {
		log.Fatal("--out is required")
	}
	kind, err := field.ParseKind(*kindName)
	if err != nil {
		log.Fatal(err)
	}

	f, err := field.Synthesize(kind, *width, *height)
	if err != nil {
		log.Fatalf("failed to synthesize field: %v", err)
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create output directory: %v", err)
		}
	}

	meta := field.Meta{Source: "synthetic/" + string(kind), Date: time.Now().UTC().Format(time.RFC3339)}
	if err := f.Save(*out+".json", *out+".png", meta); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s.json and %s.png (%dx%d, u %.1f..%.1f, v %.1f..%.1f)\n",
		*out, *out, f.Width, f.Height, f.Bounds.UMin, f.Bounds.UMax, f.Bounds.VMin, f.Bounds.VMax)

	if *preview {
		path := *out + "_speed.png"
		if err := writeSpeedPreview(f, path); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

// writeSpeedPreview colors each texel by its normalized speed.
func writeSpeedPreview(f *field.VectorField, path string) error {
	ramp, err := colorramp.Build(colorramp.DefaultStops())
	if err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			vel := f.Velocity(float32(x)/float32(f.Width), float32(y)/float32(f.Height))
			c := ramp.At(field.SpeedT(vel, f.Bounds))
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(c[0]*255 + 0.5)
			img.Pix[i+1] = uint8(c[1]*255 + 0.5)
			img.Pix[i+2] = uint8(c[2]*255 + 0.5)
			img.Pix[i+3] = 255
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating preview: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encoding preview: %w", err)
	}
	return out.Close()
}
