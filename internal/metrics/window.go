package metrics

const (
	// defaultWindowSeconds is the window length assumed when start_time
	// is unset: the hour preceding "now".
	defaultWindowSeconds = 3600

	// secondsPerHour converts window lengths to the usage request's
	// hours_use_time.
	secondsPerHour = 3600.0
)

// Window is a resolved evaluation window together with the lifetime and the
// embedded-impact pro-ration ratio that apply to it.
type Window struct {
	// Start and End are seconds since epoch, both resolved (nonzero).
	Start float64
	End   float64

	// Lifetime is the amortization span in years, grown so that it covers
	// at least the window itself.
	Lifetime float64

	// Ratio is the fraction of the hardware's manufacturing impact
	// attributed to this window. 1.0 when either requested bound was
	// unset.
	Ratio float64
}

// ResolveWindow normalizes the requested bounds against "now" and computes
// the amortization figures.
//
// Order matters and is load-bearing: the ratio is computed from the bounds
// as requested (before defaulting) with the lifetime as requested (before
// growth). A request with either bound unset always gets ratio 1.0, and a
// window longer than the lifetime yields a ratio above 1.0.
func ResolveWindow(start, end, lifetime, secondsInOneYear, now float64) Window {
	ratio := 1.0
	if start != 0 && end != 0 {
		ratio = (end - start) / (lifetime * secondsInOneYear)
	}

	if start == 0 {
		start = now - defaultWindowSeconds
	}
	if end == 0 {
		end = now
	}

	// Keep the amortization span at least as large as the window.
	if end-start >= lifetime*secondsInOneYear {
		lifetime = (end - start) / secondsInOneYear
	}

	return Window{
		Start:    start,
		End:      end,
		Lifetime: lifetime,
		Ratio:    ratio,
	}
}

// HoursUseTime is the window length expressed in hours, as the impact
// service's usage request expects.
func (w Window) HoursUseTime() float64 {
	return (w.End - w.Start) / secondsPerHour
}
