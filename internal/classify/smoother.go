package classify

// #region smoother
// Smoother is an optional stage after the classifier that only reports a
// hand state once it has been seen for MinDwell consecutive cycles. A fault
// resets both hands. MinDwell <= 1 passes decisions through unchanged.
type Smoother struct {
	minDwell  int
	candidate Hands
	count     [2]int
	reported  Hands
}

// NewSmoother creates a smoother requiring minDwell consecutive cycles.
func NewSmoother(minDwell int) *Smoother {
	return &Smoother{
		minDwell:  minDwell,
		candidate: Hands{Left: None, Right: None},
		reported:  Hands{Left: None, Right: None},
	}
}

// Apply returns d with its hand states replaced by the smoothed ones.
func (s *Smoother) Apply(d Decision) Decision {
	if s.minDwell <= 1 {
		return d
	}
	if d.Fault.Active {
		s.candidate = Hands{Left: None, Right: None}
		s.reported = Hands{Left: None, Right: None}
		s.count = [2]int{}
		return d
	}

	for _, h := range []Hand{LeftHand, RightHand} {
		st := d.Hands.Get(h)
		if st == s.candidate.Get(h) {
			s.count[h]++
		} else {
			s.candidate.set(h, st)
			s.count[h] = 1
		}
		if s.count[h] >= s.minDwell {
			s.reported.set(h, st)
		}
	}
	d.Hands = s.reported
	return d
}

// #endregion smoother
