package engine

import (
	"github.com/pthm-cable/windfield/gpu"
)

// RenderTargetPair holds the two off-screen trail targets.
// One is the background (last frame's trails), the other the screen being drawn.
type RenderTargetPair struct {
	width, height int
	targets       [2]*gpu.Texture
	screen        int
}

func newRenderTargetPair(dev *gpu.Device, width, height int) (*RenderTargetPair, error) {
	a, err := dev.NewTexture(gpu.TextureDesc{Width: width, Height: height, Label: "trails_a"}, nil)
	if err != nil {
		return nil, err
	}
	b, err := dev.NewTexture(gpu.TextureDesc{Width: width, Height: height, Label: "trails_b"}, nil)
	if err != nil {
		releaseNow(dev, a)
		return nil, err
	}
	return &RenderTargetPair{width: width, height: height, targets: [2]*gpu.Texture{a, b}}, nil
}

// Size returns the dimensions shared by both targets.
func (t *RenderTargetPair) Size() (int, int) { return t.width, t.height }

// Screen is the target the next frame draws into.
func (t *RenderTargetPair) Screen() *gpu.Texture { return t.targets[t.screen] }

// Background holds the previous frame's trails.
func (t *RenderTargetPair) Background() *gpu.Texture { return t.targets[1-t.screen] }

func (t *RenderTargetPair) swap() { t.screen = 1 - t.screen }

func (t *RenderTargetPair) release(cb *gpu.CommandBuffer) {
	cb.Release(t.targets[0])
	cb.Release(t.targets[1])
}

// releaseNow frees a resource that no submitted work can reference yet.
func releaseNow(dev *gpu.Device, r gpu.Resource) {
	cb := dev.NewCommandBuffer()
	cb.Release(r)
	_ = dev.Submit(cb)
}
