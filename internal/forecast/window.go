package forecast

// Window is a fixed-length sequence of normalized feature rows, oldest first.
type Window [][]float64

// Len returns the number of time steps.
func (w Window) Len() int { return len(w) }

// Width returns the number of features per step.
func (w Window) Width() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// Clone returns a deep copy.
func (w Window) Clone() Window {
	out := make(Window, len(w))
	for i, row := range w {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Roll shifts rows one position toward the front in place; the oldest row
// wraps around to the newest slot.
func (w Window) Roll() {
	if len(w) < 2 {
		return
	}
	first := w[0]
	copy(w, w[1:])
	w[len(w)-1] = first
}
