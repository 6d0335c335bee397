package row

import (
	"errors"
	"fmt"
	"math"
)

// Levels is the number of quantization steps between Min and Max.
const Levels = 255

// ErrInvalidConf is returned when a ValueConf cannot quantize values.
var ErrInvalidConf = errors.New("invalid value configuration")

// ValueConf maps float values in [Min, Max] to one signed byte and back.
type ValueConf struct {
	Min float32
	Max float32
}

// SimilarityConf is the configuration for cosine similarity scores.
var SimilarityConf = ValueConf{Min: -1, Max: 1}

// Validate reports whether the range is finite and non-empty.
func (c ValueConf) Validate() error {
	for _, v := range []float32{c.Min, c.Max} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite bound %v", ErrInvalidConf, v)
		}
	}
	if c.Max <= c.Min {
		return fmt.Errorf("%w: max %v <= min %v", ErrInvalidConf, c.Max, c.Min)
	}
	if w := float32(c.width()); math.IsInf(float64(w), 0) {
		return fmt.Errorf("%w: range [%v, %v] overflows float32", ErrInvalidConf, c.Min, c.Max)
	}
	return nil
}

// width is Max-Min computed without float32 overflow.
func (c ValueConf) width() float64 {
	return float64(c.Max) - float64(c.Min)
}

// Encode quantizes x. Values outside [Min, Max] clamp to the nearest bound.
// NaN encodes as Min.
func (c ValueConf) Encode(x float32) int8 {
	if math.IsNaN(float64(x)) {
		return math.MinInt8
	}
	t := (float64(x) - float64(c.Min)) / c.width() * Levels
	q := math.Round(t) - 128
	if q < math.MinInt8 {
		return math.MinInt8
	}
	if q > math.MaxInt8 {
		return math.MaxInt8
	}
	return int8(q)
}

// Decode maps a code back to a value in [Min, Max].
func (c ValueConf) Decode(b int8) float32 {
	return float32(float64(c.Min) + float64(int(b)+128)/Levels*c.width())
}

// Resolution returns the width of one quantization step.
func (c ValueConf) Resolution() float32 {
	return float32(c.width() / Levels)
}

func (c ValueConf) String() string {
	return fmt.Sprintf("[%g, %g]", c.Min, c.Max)
}
