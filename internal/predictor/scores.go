package predictor

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Scores is the wire form of a score vector. JSON has no infinities, so
// masked (-Inf) entries travel as null.
type Scores []float32

func (s Scores) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(s)*10)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		f := float64(v)
		switch {
		case math.IsInf(f, -1):
			buf = append(buf, "null"...)
		case math.IsNaN(f) || math.IsInf(f, 1):
			return nil, fmt.Errorf("score %d is not encodable: %v", i, v)
		default:
			buf = strconv.AppendFloat(buf, f, 'g', -1, 32)
		}
	}
	return append(buf, ']'), nil
}

func (s *Scores) UnmarshalJSON(b []byte) error {
	var raw []*float32
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Scores, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = float32(math.Inf(-1))
			continue
		}
		out[i] = *v
	}
	*s = out
	return nil
}
