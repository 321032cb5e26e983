package gpu

import (
	"errors"
	"testing"
)

func newTestDevice(t *testing.T, w, h int) *Device {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 4
	d, err := NewDevice(cfg, w, h)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNewTextureLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextureSize = 64
	cfg.MemoryBudget = 64 * 64 * 4 * 2
	d, err := NewDevice(cfg, 8, 8)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	tests := []struct {
		name string
		desc TextureDesc
		ok   bool
	}{
		{"fits", TextureDesc{Width: 64, Height: 64}, true},
		{"zero width", TextureDesc{Width: 0, Height: 4}, false},
		{"too wide", TextureDesc{Width: 65, Height: 1}, false},
		{"over budget", TextureDesc{Width: 64, Height: 64}, false},
	}

	for _, tt := range tests {
		_, err := d.NewTexture(tt.desc, nil)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrAllocation) {
			t.Errorf("%s: expected ErrAllocation, got %v", tt.name, err)
		}
	}
}

func TestNewTextureRejectsShortData(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	if _, err := d.NewTexture(TextureDesc{Width: 2, Height: 2}, make([]uint8, 15)); !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation for short pixel data, got %v", err)
	}
}

func TestReleaseFreesMemory(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	base := d.Stats()

	buf, err := d.NewBuffer(make([]float32, 1024), "scratch")
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if got := d.Stats().AllocatedBytes - base.AllocatedBytes; got != 4096 {
		t.Errorf("expected 4096 bytes allocated, got %d", got)
	}

	cb := d.NewCommandBuffer()
	cb.Release(buf)
	if err := d.Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if s := d.Stats(); s != base {
		t.Errorf("expected stats back to %+v, got %+v", base, s)
	}
}

func TestTransformLeavesSourceUntouched(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	n := 1000
	data := make([]float32, n*2)
	for i := range data {
		data[i] = float32(i)
	}
	src, _ := d.NewBuffer(data, "src")
	dst, _ := d.NewBuffer(make([]float32, n*2), "dst")

	cb := d.NewCommandBuffer()
	cb.Transform("double", src, dst, n, func(start, end int, in, out []float32) {
		for i := start; i < end; i++ {
			out[2*i] = in[2*i] * 2
			out[2*i+1] = in[2*i+1] * 2
		}
	})
	if err := d.Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	gotSrc, _ := d.ReadBuffer(src)
	gotDst, _ := d.ReadBuffer(dst)
	for i := range data {
		if gotSrc[i] != data[i] {
			t.Fatalf("source modified at %d: %v != %v", i, gotSrc[i], data[i])
		}
		if gotDst[i] != data[i]*2 {
			t.Fatalf("dst[%d] = %v, want %v", i, gotDst[i], data[i]*2)
		}
	}

	timings := d.PassTimings()
	if _, ok := timings["double"]; !ok {
		t.Error("expected timing recorded for labeled pass")
	}
	if len(d.PassTimings()) != 0 {
		t.Error("expected timings reset after read")
	}
}

func TestBlendAlpha(t *testing.T) {
	d := newTestDevice(t, 2, 2)
	surface := d.Surface()

	cb := d.NewCommandBuffer()
	cb.Clear(surface, Color{0, 0, 0, 1})
	cb.DrawQuad("over", surface, BlendAlpha, func(x, y int) Color {
		return Color{1, 0, 0, 0.5}
	})
	d.Submit(cb)

	pix, err := d.ReadPixels(surface)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	// rgb = src*a + dst*(1-a); a = a*a + 1*(1-a) = 0.75
	want := [4]uint8{128, 0, 0, 191}
	for i := 0; i < len(pix); i += 4 {
		got := [4]uint8{pix[i], pix[i+1], pix[i+2], pix[i+3]}
		if got != want {
			t.Fatalf("pixel %d = %v, want %v", i/4, got, want)
		}
	}
}

func TestDrawPointsRasterOrder(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	target, _ := d.NewTexture(TextureDesc{Width: 4, Height: 4}, nil)

	// Two points land in pixel (1, 2); a third is outside and ignored.
	pos, _ := d.NewBuffer([]float32{0.3, 0.6, 0.26, 0.74, 1.5, 0.5}, "points")
	cb := d.NewCommandBuffer()
	cb.DrawPoints("points", target, pos, 3, BlendDisabled, func(x, y float32) (Color, bool) {
		return Color{x, 0, 0, 1}, true
	})
	d.Submit(cb)

	pix, _ := d.ReadPixels(target)
	o := (2*4 + 1) * 4
	if pix[o] != toUnorm(0.26) || pix[o+3] != 255 {
		t.Errorf("expected last point to win, got %v", pix[o:o+4])
	}

	lit := 0
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			lit++
		}
	}
	if lit != 1 {
		t.Errorf("expected exactly 1 lit pixel, got %d", lit)
	}
}

func TestResizeSurface(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	if err := d.ResizeSurface(16, 8); err != nil {
		t.Fatalf("ResizeSurface: %v", err)
	}
	if w, h := d.Surface().Size(); w != 16 || h != 8 {
		t.Errorf("expected 16x8 surface, got %dx%d", w, h)
	}
	if err := d.ResizeSurface(0, 8); !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
	if w, h := d.Surface().Size(); w != 16 || h != 8 {
		t.Errorf("failed resize must keep previous surface, got %dx%d", w, h)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	d, err := NewDevice(DefaultConfig(), 2, 2)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	d.Close()
	if err := d.Submit(d.NewCommandBuffer()); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("expected ErrDeviceClosed, got %v", err)
	}
}

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		i, n int
		mode WrapMode
		want int
	}{
		{-1, 4, WrapRepeat, 3},
		{4, 4, WrapRepeat, 0},
		{9, 4, WrapRepeat, 1},
		{-1, 4, WrapClampToEdge, 0},
		{7, 4, WrapClampToEdge, 3},
		{2, 4, WrapClampToEdge, 2},
	}
	for _, tt := range tests {
		if got := wrapIndex(tt.i, tt.n, tt.mode); got != tt.want {
			t.Errorf("wrapIndex(%d, %d, %d) = %d, want %d", tt.i, tt.n, tt.mode, got, tt.want)
		}
	}
}
