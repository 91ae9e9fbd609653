package boundingbox

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned for objects whose name is not in the label map
var ErrUnknownLabel = errors.New("unknown label")

type annotation struct {
	Size struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Depth  int `json:"depth"`
	} `json:"size"`
	Object []struct {
		Name   string `json:"name"`
		BndBox struct {
			Xmin float64 `json:"xmin"`
			Ymin float64 `json:"ymin"`
			Xmax float64 `json:"xmax"`
			Ymax float64 `json:"ymax"`
		} `json:"bndbox"`
		Difficult bool `json:"difficult"`
		Truncated bool `json:"truncated"`
	} `json:"object"`
}

// Extractor decodes JSON annotations, resolving label names through a
// shared read-only label map.
type Extractor struct {
	labelMap map[string]int
}

// NewExtractor creates an extractor sharing the label map of cfg
func NewExtractor(cfg *Config) *Extractor {
	return &Extractor{labelMap: cfg.LabelMap}
}

// Extract parses one annotation. Boxes keep the order of the source.
func (e *Extractor) Extract(data []byte) (*Decoded, error) {
	var a annotation
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse annotation: %w", err)
	}

	d := &Decoded{
		Width:  a.Size.Width,
		Height: a.Size.Height,
		Depth:  a.Size.Depth,
		Boxes:  make([]Box, 0, len(a.Object)),
	}

	for i, obj := range a.Object {
		label, ok := e.labelMap[obj.Name]
		if !ok {
			return nil, fmt.Errorf("%w %q on object %d", ErrUnknownLabel, obj.Name, i)
		}
		d.Boxes = append(d.Boxes, Box{
			Xmin:      obj.BndBox.Xmin,
			Ymin:      obj.BndBox.Ymin,
			Xmax:      obj.BndBox.Xmax,
			Ymax:      obj.BndBox.Ymax,
			Label:     label,
			Difficult: obj.Difficult,
			Truncated: obj.Truncated,
		})
	}

	return d, nil
}
