package gpu

// TransformKernel computes output elements [start, end) from src into dst.
// It runs on worker goroutines; it must only write dst elements in its range.
type TransformKernel func(start, end int, src, dst []float32)

// FragmentKernel shades pixel (x, y) of a fullscreen pass. y grows downward.
type FragmentKernel func(x, y int) Color

// PointKernel shades a 1px point at normalized position (x, y) in [0,1)².
// Returning ok=false discards the point.
type PointKernel func(x, y float32) (c Color, ok bool)

type command struct {
	label string
	exec  func(d *Device)
}

// CommandBuffer records passes to be executed in order on the device queue.
// Kernels are captured by reference and run after Submit returns.
type CommandBuffer struct {
	cmds  []command
	fence chan struct{}
}

// NewCommandBuffer returns an empty command buffer.
func (d *Device) NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{cmds: make([]command, 0, 8)}
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	return len(cb.cmds)
}

// Clear fills target with a constant color.
func (cb *CommandBuffer) Clear(target *Texture, c Color) {
	cb.cmds = append(cb.cmds, command{exec: func(d *Device) {
		px := [4]uint8{toUnorm(c[0]), toUnorm(c[1]), toUnorm(c[2]), toUnorm(c[3])}
		pix := target.pix
		for i := 0; i+3 < len(pix); i += 4 {
			pix[i] = px[0]
			pix[i+1] = px[1]
			pix[i+2] = px[2]
			pix[i+3] = px[3]
		}
	}})
}

// Transform runs a transform feedback pass over count elements of stride 2,
// reading src and writing dst. src is never written.
func (cb *CommandBuffer) Transform(label string, src, dst *Buffer, count int, k TransformKernel) {
	cb.cmds = append(cb.cmds, command{label: label, exec: func(d *Device) {
		in, out := src.data, dst.data
		if count*2 > len(in) || count*2 > len(out) {
			d.log.Error("transform pass out of bounds", "label", label, "count", count)
			return
		}
		d.pool.dispatch(count, func(start, end int) {
			k(start, end, in, out)
		})
	}})
}

// DrawQuad runs a fullscreen fragment pass into target.
// The kernel must not sample target itself.
func (cb *CommandBuffer) DrawQuad(label string, target *Texture, blend Blend, k FragmentKernel) {
	cb.cmds = append(cb.cmds, command{label: label, exec: func(d *Device) {
		w, h := target.Size()
		pix := target.pix
		d.pool.dispatch(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				row := pix[y*w*4 : (y+1)*w*4]
				for x := 0; x < w; x++ {
					blend.apply(k(x, y), row[x*4:x*4+4])
				}
			}
		})
	}})
}

// DrawPoints draws count points from a position buffer (x, y pairs in [0,1))
// into target. Points are shaded in parallel and rasterized in buffer order,
// so later points win on overlap exactly like an in-order GPU.
func (cb *CommandBuffer) DrawPoints(label string, target *Texture, positions *Buffer, count int, blend Blend, k PointKernel) {
	cb.cmds = append(cb.cmds, command{label: label, exec: func(d *Device) {
		pos := positions.data
		if count*2 > len(pos) {
			d.log.Error("point pass out of bounds", "label", label, "count", count)
			return
		}
		if cap(d.pointColors) < count {
			d.pointColors = make([]Color, count)
			d.pointIndex = make([]int32, count)
		}
		colors := d.pointColors[:count]
		index := d.pointIndex[:count]

		w, h := target.Size()
		d.pool.dispatch(count, func(start, end int) {
			for i := start; i < end; i++ {
				x, y := pos[2*i], pos[2*i+1]
				px, py := int(x*float32(w)), int(y*float32(h))
				if x < 0 || y < 0 || px >= w || py >= h {
					index[i] = -1
					continue
				}
				c, ok := k(x, y)
				if !ok {
					index[i] = -1
					continue
				}
				colors[i] = c
				index[i] = int32(py*w + px)
			}
		})

		pix := target.pix
		for i, idx := range index {
			if idx < 0 {
				continue
			}
			o := int(idx) * 4
			blend.apply(colors[i], pix[o:o+4])
		}
	}})
}

// Release frees a resource once all previously recorded work has run.
func (cb *CommandBuffer) Release(r Resource) {
	if r == nil {
		return
	}
	cb.cmds = append(cb.cmds, command{exec: func(d *Device) {
		r.release(d)
	}})
}
