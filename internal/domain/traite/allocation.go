package traite

// StepFor returns the rounding granularity used for a total
func StepFor(total int64) int64 {
	switch {
	case total >= 10_000_000:
		return 1_000_000
	case total >= 100_000:
		return 1_000
	default:
		return 1
	}
}

// Split divides total into n front-loaded installments that sum exactly to total.
//
// Every slot gets total/n rounded down to the step; the shortfall is handed out
// one step at a time from the first slot, and any overshoot is taken back from
// the last slot towards the first.
func Split(total int64, n int) []int64 {
	if n < 1 {
		n = 1
	}
	out := make([]int64, n)
	if total <= 0 {
		return out
	}

	step := StepFor(total)
	count := int64(n)
	equalRounded := (total / count / step) * step
	for i := range out {
		out[i] = equalRounded
	}

	remaining := total - equalRounded*count
	steps := (remaining + step - 1) / step
	for i := 0; steps > 0; i = (i + 1) % n {
		out[i] += step
		steps--
	}

	over := sum(out) - total
	for i := n - 1; over > 0 && i >= 0; i-- {
		d := min(over, step, out[i])
		out[i] -= d
		over -= d
	}
	return out
}

func sum(values []int64) int64 {
	var s int64
	for _, v := range values {
		s += v
	}
	return s
}
