package shape

import (
	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/kinematics"
)

// Kind enumerates the grip patterns the classifier distinguishes.
type Kind int

const (
	Unknown Kind = iota
	Sphere
	Cylinder
	Flat
	Rod
	Box
	Irregular
)

var kindNames = map[Kind]string{
	Unknown:   "unknown",
	Sphere:    "sphere",
	Cylinder:  "cylinder",
	Flat:      "flat",
	Rod:       "rod",
	Box:       "box",
	Irregular: "irregular",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ContactPoint is one pressed sensor cell projected into 3D. Ephemeral;
// rebuilt from scratch every acquisition cycle.
type ContactPoint struct {
	Position kinematics.Vec3 `json:"position"`
	Pressure float64         `json:"pressure"`
	Finger   string          `json:"finger"`
	Region   string          `json:"region"`
}

// RegionSample pairs a sensor region with its grid analysis.
type RegionSample struct {
	Region   hand.Region
	Analysis GridAnalysis
}

// Estimate is the whole-hand classification result. Metrics carries the
// aggregate scores the ladder decided on, keyed by name (curvature,
// circularity, closure, spread).
type Estimate struct {
	Kind       Kind               `json:"kind"`
	Confidence float64            `json:"confidence"`
	Centroid   kinematics.Vec3    `json:"centroid"`
	Extent     kinematics.Vec3    `json:"extent"`
	Radius     float64            `json:"radius"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Confidence ceilings per grip pattern.
const (
	ceilingRound = 0.95
	ceilingOther = 0.90
)

// Classify runs the fixed decision ladder over the per-region analyses.
// samples may cover every polled region; only the tip, pad and palm
// grids participate, nail grids are skipped. actual is the
// device-reported joint vector; contacts feed the centroid and extent.
func Classify(samples []RegionSample, actual hand.JointVector, contacts []ContactPoint) Estimate {
	var (
		palm        GridAnalysis
		hasPalm     bool
		tipContacts int
		padContacts int
		fingerSet   [6]bool

		curvatureSum float64
		weightSum    float64
		contacting   int
	)

	for _, s := range samples {
		if s.Region.Kind == hand.KindNail {
			continue
		}
		a := s.Analysis
		switch s.Region.Kind {
		case hand.KindPalm:
			palm = a
			hasPalm = a.Contact
		case hand.KindTip:
			if a.Contact {
				tipContacts++
				fingerSet[s.Region.Finger] = true
			}
		case hand.KindPad:
			if a.Contact {
				padContacts++
				fingerSet[s.Region.Finger] = true
			}
		}
		if !a.Contact {
			continue
		}
		contacting++
		w := regionWeight(s.Region.Kind) * (0.5 + a.TotalPressure)
		curvatureSum += a.Curvature * w
		weightSum += w
	}

	fingerContacts := 0
	for _, hit := range fingerSet {
		if hit {
			fingerContacts++
		}
	}

	var meanCurvature float64
	if weightSum > 0 {
		meanCurvature = curvatureSum / weightSum
	}

	// Mean closure over the four non-thumb fingers; 0 open, 1 closed.
	var closure float64
	for f := 0; f < 4; f++ {
		closure += float64(1000-clampI(actual[f], 0, 1000)) / 1000
	}
	closure /= 4

	est := decide(ladderInput{
		contacting:     contacting,
		hasPalm:        hasPalm,
		palm:           palm,
		meanCurvature:  meanCurvature,
		tipContacts:    tipContacts,
		fingerContacts: fingerContacts,
		closure:        closure,
	})

	est.Metrics = map[string]float64{
		"curvature":   meanCurvature,
		"circularity": palm.Circularity,
		"closure":     closure,
		"spread":      palm.Spread,
	}

	est.Centroid, est.Extent = contactBounds(contacts)
	if est.Radius == 0 {
		est.Radius = est.Extent.Length() / 2
	}
	if est.Kind == Sphere && len(contacts) >= 3 {
		est.Radius = meanCentroidDistance(contacts, est.Centroid)
	}
	return est
}

type ladderInput struct {
	contacting     int
	hasPalm        bool
	palm           GridAnalysis
	meanCurvature  float64
	tipContacts    int
	fingerContacts int
	closure        float64
}

// decide applies the grip pattern ladder in fixed order; the first match
// wins.
func decide(in ladderInput) Estimate {
	if in.contacting < 2 {
		return Estimate{Kind: Unknown}
	}

	if in.hasPalm && in.palm.Curvature > 0.15 && in.fingerContacts >= 1 && in.closure > 0.25 {
		conf := 0.3 + 0.3*maxF(0, in.palm.Curvature) +
			0.2*in.palm.Circularity + 0.2*minF(in.closure, 0.8)
		return Estimate{Kind: Sphere, Confidence: minF(conf, ceilingRound)}
	}

	if in.hasPalm && in.palm.Curvature > 0.10 && in.palm.Circularity < 0.5 && in.fingerContacts >= 2 {
		conf := 0.4 + 0.2*in.palm.Curvature + 0.2*(1-in.palm.Circularity) +
			0.2*minF(float64(in.fingerContacts)/4, 1)
		return Estimate{Kind: Cylinder, Confidence: minF(conf, ceilingRound)}
	}

	if in.hasPalm && absF(in.palm.Curvature) < 0.12 && in.palm.Spread > 0.1 {
		conf := 0.4 + 0.3*maxF(0, 1-5*absF(in.palm.Curvature)) + 0.3*in.palm.Spread
		return Estimate{Kind: Flat, Confidence: minF(conf, ceilingOther)}
	}

	if in.tipContacts >= 2 && in.palm.TotalPressure <= 0.3 && in.closure > 0.5 {
		conf := 0.4 + 0.1*float64(in.tipContacts) + 0.2*in.closure
		return Estimate{Kind: Rod, Confidence: minF(conf, ceilingOther)}
	}

	if in.fingerContacts >= 3 && in.closure > 0.2 && in.closure < 0.7 {
		conf := 0.4 + 0.08*float64(in.fingerContacts)
		return Estimate{Kind: Box, Confidence: minF(conf, ceilingOther)}
	}

	return Estimate{Kind: Irregular, Confidence: 0.3}
}

func regionWeight(k hand.RegionKind) float64 {
	switch k {
	case hand.KindPalm:
		return 3.0
	case hand.KindTip:
		return 0.5
	default:
		return 1.0
	}
}

// contactBounds computes the pressure-weighted centroid and the bounding
// extent of the contact cloud. Fewer than 3 points yields zeros.
func contactBounds(contacts []ContactPoint) (centroid, extent kinematics.Vec3) {
	if len(contacts) < 3 {
		return kinematics.Vec3{}, kinematics.Vec3{}
	}

	var totalP float64
	lo := contacts[0].Position
	hi := contacts[0].Position
	for _, c := range contacts {
		centroid = centroid.Add(c.Position.Scale(c.Pressure))
		totalP += c.Pressure
		lo.X = minF(lo.X, c.Position.X)
		lo.Y = minF(lo.Y, c.Position.Y)
		lo.Z = minF(lo.Z, c.Position.Z)
		hi.X = maxF(hi.X, c.Position.X)
		hi.Y = maxF(hi.Y, c.Position.Y)
		hi.Z = maxF(hi.Z, c.Position.Z)
	}
	if totalP > 0 {
		centroid = centroid.Scale(1 / totalP)
	}
	return centroid, hi.Sub(lo)
}

func meanCentroidDistance(contacts []ContactPoint, centroid kinematics.Vec3) float64 {
	var sum float64
	for _, c := range contacts {
		sum += c.Position.Sub(centroid).Length()
	}
	return sum / float64(len(contacts))
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
