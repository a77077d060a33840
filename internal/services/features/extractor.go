package features

import "math"

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}) over a close
// series ordered oldest first. Non-positive prices contribute a zero return.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// MeanStd returns the mean and sample standard deviation of xs.
func MeanStd(xs []float64) (float64, float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	sum, sum2 := 0.0, 0.0
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// RealizedVolatility is the sample standard deviation of the last window
// returns. It returns 0 when fewer than window returns are available.
func RealizedVolatility(logReturns []float64, window int) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	_, sd := MeanStd(logReturns[len(logReturns)-window:])
	return sd
}

// LastReturnZScore scores the newest return against the window of returns
// preceding it. ok is false when the history is too short or flat.
func LastReturnZScore(logReturns []float64, window int) (z float64, ok bool) {
	if window < 2 || len(logReturns) < window+1 {
		return 0, false
	}
	last := logReturns[len(logReturns)-1]
	base := logReturns[len(logReturns)-1-window : len(logReturns)-1]
	mean, sd := MeanStd(base)
	if sd == 0 {
		return 0, false
	}
	return (last - mean) / sd, true
}
