package types

// Orientation describes how stored pixels must be transformed for display.
// Values follow the EXIF orientation tag numbering.
type Orientation int

const (
	OrientationUp            Orientation = 1
	OrientationUpMirrored    Orientation = 2
	OrientationDown          Orientation = 3
	OrientationDownMirrored  Orientation = 4
	OrientationLeftMirrored  Orientation = 5
	OrientationRight         Orientation = 6
	OrientationRightMirrored Orientation = 7
	OrientationLeft          Orientation = 8
)

var orientationNames = map[Orientation]string{
	OrientationUp:            "up",
	OrientationUpMirrored:    "up-mirrored",
	OrientationDown:          "down",
	OrientationDownMirrored:  "down-mirrored",
	OrientationLeftMirrored:  "left-mirrored",
	OrientationRight:         "right",
	OrientationRightMirrored: "right-mirrored",
	OrientationLeft:          "left",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether o is one of the eight EXIF orientations.
func (o Orientation) Valid() bool {
	_, ok := orientationNames[o]
	return ok
}

// ParseOrientation maps a name such as "right" back to its Orientation.
func ParseOrientation(name string) (Orientation, bool) {
	for o, n := range orientationNames {
		if n == name {
			return o, true
		}
	}
	return 0, false
}

// Anchor is the corner or center an overlay is positioned against.
type Anchor string

const (
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
	AnchorCenter      Anchor = "center"
)

// Anchors lists every supported anchor.
var Anchors = []Anchor{AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight, AnchorCenter}

// OverlayKind selects what an overlay draws.
type OverlayKind string

const (
	OverlayText           OverlayKind = "text"
	OverlayAttributedText OverlayKind = "attributed-text"
	OverlayImage          OverlayKind = "image"
)

// CropPolicy decides how per-frame foreground rectangles are combined.
type CropPolicy string

const (
	CropUnion        CropPolicy = "union"
	CropIntersection CropPolicy = "intersection"
)

// StreamDescriptor is derived once from a frame source when a run starts.
type StreamDescriptor struct {
	NominalFrameRate   float64
	NominalTotalFrames int
	Orientation        Orientation
}
