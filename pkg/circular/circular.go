package circular

import (
	"errors"
	"sync"
)

/*
 * Returned when a snapshot target does not match the window size.
 */
var ErrSizeMismatch = errors.New("circular: target buffer must be of the same size as the window")

/*
 * Data structure implementing a sliding window over the most recent
 * samples of a stream.
 */
type Window struct {
	mutex   sync.RWMutex
	values  []float64
	pointer int
	filled  int
	total   uint64
}

/*
 * Add samples to the window, overwriting the oldest ones.
 *
 * Pointer points to the oldest sample, or the next sample to be
 * overwritten.
 */
func (w *Window) Enqueue(samples ...float64) {
	numSamples := len(samples)
	values := w.values
	n := len(values)
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.total += uint64(numSamples)

	/*
	 * If there are more samples than fit into the window, simply copy
	 * the tail of the sample array, otherwise perform circular write.
	 */
	if numSamples >= n {
		idx := numSamples - n
		copy(values, samples[idx:numSamples])
		w.pointer = 0
		w.filled = n
		return
	}

	ptr := w.pointer
	ptrInc := ptr + numSamples

	/*
	 * Check whether the write operation stays within the array bounds.
	 */
	if ptrInc < n {
		copy(values[ptr:ptrInc], samples)
		w.pointer = ptrInc
	} else {
		head := ptrInc - n
		tail := n - ptr
		copy(values[ptr:n], samples[0:tail])
		copy(values[0:head], samples[tail:numSamples])
		w.pointer = head
	}

	w.filled += numSamples

	if w.filled > n {
		w.filled = n
	}

}

/*
 * Returns the size of the window.
 */
func (w *Window) Length() int {
	return len(w.values)
}

/*
 * Reports whether the window holds a complete frame.
 */
func (w *Window) Full() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.filled == len(w.values)
}

/*
 * Returns the number of samples enqueued since creation or the last
 * reset.
 */
func (w *Window) Total() uint64 {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.total
}

/*
 * Copy the window into buf, oldest sample first.
 */
func (w *Window) Retrieve(buf []float64) error {
	values := w.values
	n := len(values)

	/*
	 * Ensure the target buffer is of equal size.
	 */
	if len(buf) != n {
		return ErrSizeMismatch
	}

	w.mutex.RLock()
	ptr := w.pointer
	tailSize := n - ptr
	copy(buf[0:tailSize], values[ptr:n])
	copy(buf[tailSize:n], values[0:ptr])
	w.mutex.RUnlock()
	return nil
}

/*
 * Returns a copy of the window, oldest sample first.
 */
func (w *Window) Snapshot() []float64 {
	buf := make([]float64, len(w.values))
	w.Retrieve(buf)
	return buf
}

/*
 * Clear the window.
 */
func (w *Window) Reset() {
	w.mutex.Lock()

	for i := range w.values {
		w.values[i] = 0
	}

	w.pointer = 0
	w.filled = 0
	w.total = 0
	w.mutex.Unlock()
}

/*
 * Creates a sliding window of a certain size.
 */
func CreateWindow(size int) *Window {
	values := make([]float64, size)

	/*
	 * Create sliding window.
	 */
	w := Window{
		values: values,
	}

	return &w
}
