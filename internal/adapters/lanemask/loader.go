package lanemask

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"traffic-reroute-service/internal/domain"
)

// Pixels at or above this luminance belong to the lane.
const DefaultThreshold = 200

type mask struct {
	lane domain.LaneID
	img  image.Image
}

// Classifier maps image positions to lanes using one mask per lane.
// Masks are checked in lane order and the last matching mask wins.
type Classifier struct {
	masks     []mask
	Threshold uint8
}

// ParseMaskName parses "<a>-<b>-<l|r>.<ext>". "l" is the forward lane,
// anything else the backward lane.
func ParseMaskName(name string) (domain.LaneID, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return domain.LaneID{}, false
	}
	fields := strings.Split(parts[0], "-")
	if len(fields) != 3 {
		return domain.LaneID{}, false
	}

	a, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return domain.LaneID{}, false
	}
	b, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return domain.LaneID{}, false
	}

	dir := domain.Backward
	if fields[2] == "l" {
		dir = domain.Forward
	}

	return domain.LaneID{
		Road: domain.RoadID{A: domain.IntersectionID(a), B: domain.IntersectionID(b)},
		Dir:  dir,
	}, true
}

// Load reads every mask image in dir. Files whose names do not follow the mask
// naming scheme are skipped; undecodable mask files are an error.
func Load(dir string) (*Classifier, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load lane masks: read dir %q: %w", dir, err)
	}

	c := &Classifier{Threshold: DefaultThreshold}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		lane, ok := ParseMaskName(e.Name())
		if !ok {
			continue
		}

		img, err := decode(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load lane masks: %w", err)
		}
		c.masks = append(c.masks, mask{lane: lane, img: img})
		log.Printf("op=lanemask.Load lane=%s file=%s", lane, e.Name())
	}

	slices.SortFunc(c.masks, func(x, y mask) int { return compareLane(x.lane, y.lane) })
	return c, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return img, nil
}

// Lanes returns the lanes that have a mask.
func (c *Classifier) Lanes() []domain.LaneID {
	out := make([]domain.LaneID, len(c.masks))
	for i, m := range c.masks {
		out[i] = m.lane
	}
	return out
}

// Classify implements ports.LaneClassifier. Positions outside a mask's bounds never match it.
func (c *Classifier) Classify(x, y float64) (domain.LaneID, bool) {
	px, py := int(x), int(y)

	var lane domain.LaneID
	found := false
	for _, m := range c.masks {
		if !(image.Point{X: px, Y: py}).In(m.img.Bounds()) {
			continue
		}
		g := color.GrayModel.Convert(m.img.At(px, py)).(color.Gray)
		if g.Y >= c.Threshold {
			lane = m.lane
			found = true
		}
	}
	return lane, found
}

func compareLane(a, b domain.LaneID) int {
	switch {
	case a.Road.A != b.Road.A:
		return int(a.Road.A) - int(b.Road.A)
	case a.Road.B != b.Road.B:
		return int(a.Road.B) - int(b.Road.B)
	}
	return a.Dir - b.Dir
}
