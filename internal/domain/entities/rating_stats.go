package entities

// Distribution counts reviews per rounded star value, 1 through 5.
type Distribution map[int]int

// NewDistribution returns a distribution with every star present at zero.
func NewDistribution() Distribution {
	return Distribution{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
}

// RatingStats summarises the reviews of one bucket.
type RatingStats struct {
	Average      float64      `json:"average"`
	Count        int          `json:"count"`
	Distribution Distribution `json:"distribution"`
}

// Clone returns a copy with its own distribution map.
func (s RatingStats) Clone() RatingStats {
	out := s
	out.Distribution = make(Distribution, len(s.Distribution))
	for k, v := range s.Distribution {
		out.Distribution[k] = v
	}
	return out
}
