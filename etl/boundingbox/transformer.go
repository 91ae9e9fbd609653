package boundingbox

import (
	"github.com/RyanBlaney/sonido-loader/etl/image"
)

// Transformer maps boxes through the crop, flip and resize applied to the
// paired image.
type Transformer struct{}

// NewTransformer creates a bounding box transformer
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform returns a new Decoded in output image coordinates. Boxes that
// fall entirely outside the crop are dropped, the rest are clipped to it.
// Nil params leave the annotation unchanged.
func (t *Transformer) Transform(params *image.Params, d *Decoded) (*Decoded, error) {
	if params == nil {
		return d, nil
	}

	crop := params.Cropbox
	left, top := float64(crop.X), float64(crop.Y)
	right, bottom := left+float64(crop.Width), top+float64(crop.Height)
	sx, sy := params.ScaleX(), params.ScaleY()

	out := &Decoded{
		Width:  params.OutputWidth,
		Height: params.OutputHeight,
		Depth:  d.Depth,
		Boxes:  make([]Box, 0, len(d.Boxes)),
	}

	for _, b := range d.Boxes {
		if b.Xmax <= left || b.Xmin >= right || b.Ymax <= top || b.Ymin >= bottom {
			continue
		}

		nb := b
		nb.Xmin = max(b.Xmin, left) - left
		nb.Xmax = min(b.Xmax, right) - left
		nb.Ymin = max(b.Ymin, top) - top
		nb.Ymax = min(b.Ymax, bottom) - top

		if params.Flip {
			w := float64(crop.Width)
			nb.Xmin, nb.Xmax = w-nb.Xmax, w-nb.Xmin
		}

		nb.Xmin *= sx
		nb.Xmax *= sx
		nb.Ymin *= sy
		nb.Ymax *= sy

		out.Boxes = append(out.Boxes, nb)
	}

	return out, nil
}
