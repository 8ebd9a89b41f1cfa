package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/bounce/internal/dynamo"
)

// HeightSeries extracts the y coordinate of one body from each frame.
func HeightSeries(frames []dynamo.Frame, body int) []float64 {
	ys := make([]float64, 0, len(frames))
	for _, f := range frames {
		if body < len(f.Bodies) {
			ys = append(ys, f.Bodies[body].Pos.Y)
		}
	}
	return ys
}

// PowerSpectrum returns |X_k|² for k in [0, n/2) of the mean-removed,
// Hann-windowed series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range data {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	ps := make([]float64, n/2)
	for i := range ps {
		a := cmplx.Abs(spectrum[i])
		ps[i] = a * a
	}
	return ps
}

// DominantFrequency is the frequency in Hz of the strongest non-DC bin for
// a series sampled every dt seconds. It is zero when no bin stands out.
func DominantFrequency(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] == 0 {
		return 0
	}
	return float64(best) / (float64(len(data)) * dt)
}
