package spectral

// #region bands
// Band is a closed frequency interval in Hz.
type Band struct {
	Name string
	Lo   float64
	Hi   float64
}

// Motor-cortex bands used by the classifier.
var (
	Alpha = Band{Name: "alpha", Lo: 8.0, Hi: 13.0}
	Beta  = Band{Name: "beta", Lo: 13.0, Hi: 30.0}
	Gamma = Band{Name: "gamma", Lo: 30.0, Hi: 50.0}
)

// #endregion bands

// #region band-powers
// BandPowers holds the absolute alpha/beta/gamma power of one channel window.
type BandPowers struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Total is the pre-normalization sum of the three bands.
func (b BandPowers) Total() float64 {
	return b.Alpha + b.Beta + b.Gamma
}

// #endregion band-powers

// #region relative-powers
// RelativePowers is BandPowers normalized by their total.
type RelativePowers struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Relative normalizes b by its total. A zero total yields (0,0,0).
func Relative(b BandPowers) RelativePowers {
	total := b.Total()
	if total == 0 {
		return RelativePowers{}
	}
	return RelativePowers{
		Alpha: b.Alpha / total,
		Beta:  b.Beta / total,
		Gamma: b.Gamma / total,
	}
}

// #endregion relative-powers
