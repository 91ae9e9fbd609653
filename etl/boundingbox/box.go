package boundingbox

// Box is one annotated object. Coordinates are in pixels of the image the
// object belongs to.
type Box struct {
	Xmin, Ymin float64
	Xmax, Ymax float64
	Label      int
	Difficult  bool
	Truncated  bool
}

// Decoded is the annotation of one image
type Decoded struct {
	Width  int
	Height int
	Depth  int
	Boxes  []Box
}
