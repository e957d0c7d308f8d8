package hand

// Finger identifies which digit a sensor region belongs to.
type Finger int

const (
	FingerNone Finger = iota
	FingerPinky
	FingerRing
	FingerMiddle
	FingerIndex
	FingerThumb
)

func (f Finger) String() string {
	switch f {
	case FingerPinky:
		return "pinky"
	case FingerRing:
		return "ring"
	case FingerMiddle:
		return "middle"
	case FingerIndex:
		return "index"
	case FingerThumb:
		return "thumb"
	default:
		return "palm"
	}
}

// RegionKind distinguishes the sensor patch types on each digit.
type RegionKind int

const (
	KindTip RegionKind = iota
	KindNail
	KindPad
	KindPalm
)

// Region describes one tactile sensor patch: a Rows x Cols grid of 16-bit
// pressure cells read from Count() consecutive holding registers at Addr.
// The palm grid arrives column-major on the wire and is remapped to
// row-major before publishing; all other regions are row-major already.
type Region struct {
	Name        string
	Finger      Finger
	Kind        RegionKind
	Rows        int
	Cols        int
	Addr        uint16
	ColumnMajor bool
}

// Count is the number of registers the region occupies.
func (r Region) Count() int {
	return r.Rows * r.Cols
}

// Regions is the full sensor map in device address order. The blocks are
// contiguous from 3000 upward, so addresses follow from the grid sizes.
var Regions = []Region{
	{Name: "pinky_tip", Finger: FingerPinky, Kind: KindTip, Rows: 3, Cols: 3, Addr: 3000},
	{Name: "pinky_nail", Finger: FingerPinky, Kind: KindNail, Rows: 12, Cols: 8, Addr: 3009},
	{Name: "pinky_pad", Finger: FingerPinky, Kind: KindPad, Rows: 10, Cols: 8, Addr: 3105},
	{Name: "ring_tip", Finger: FingerRing, Kind: KindTip, Rows: 3, Cols: 3, Addr: 3185},
	{Name: "ring_nail", Finger: FingerRing, Kind: KindNail, Rows: 12, Cols: 8, Addr: 3194},
	{Name: "ring_pad", Finger: FingerRing, Kind: KindPad, Rows: 10, Cols: 8, Addr: 3290},
	{Name: "middle_tip", Finger: FingerMiddle, Kind: KindTip, Rows: 3, Cols: 3, Addr: 3370},
	{Name: "middle_nail", Finger: FingerMiddle, Kind: KindNail, Rows: 12, Cols: 8, Addr: 3379},
	{Name: "middle_pad", Finger: FingerMiddle, Kind: KindPad, Rows: 10, Cols: 8, Addr: 3475},
	{Name: "index_tip", Finger: FingerIndex, Kind: KindTip, Rows: 3, Cols: 3, Addr: 3555},
	{Name: "index_nail", Finger: FingerIndex, Kind: KindNail, Rows: 12, Cols: 8, Addr: 3564},
	{Name: "index_pad", Finger: FingerIndex, Kind: KindPad, Rows: 10, Cols: 8, Addr: 3660},
	{Name: "thumb_tip", Finger: FingerThumb, Kind: KindTip, Rows: 3, Cols: 3, Addr: 3740},
	{Name: "thumb_nail", Finger: FingerThumb, Kind: KindNail, Rows: 12, Cols: 8, Addr: 3749},
	{Name: "thumb_pad", Finger: FingerThumb, Kind: KindPad, Rows: 12, Cols: 8, Addr: 3845},
	{Name: "palm", Finger: FingerNone, Kind: KindPalm, Rows: 8, Cols: 14, Addr: 3941, ColumnMajor: true},
}

// RegionByName looks a region up in the sensor map.
func RegionByName(name string) (Region, bool) {
	for _, r := range Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// RemapColumnMajor reorders a column-major wire grid into row-major order.
// raw must hold rows*cols values; the input slice is not modified.
func RemapColumnMajor(raw []uint16, rows, cols int) []uint16 {
	out := make([]uint16, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = raw[c*rows+r]
		}
	}
	return out
}
