// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across calls so chunked input resamples seamlessly
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is the read position in the virtual input made of lastSample
	// (when primed) followed by the next input chunk
	position   float64
	lastSample []int32 // one sample per channel
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved output at
// outputRate and returns the number of output samples written. Output must be
// at least OutputSamplesNeeded(len(input)) long or the tail of input is lost.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	total := inputFrames
	if r.primed {
		total++
	}
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		if idx+1 >= total {
			break
		}

		frac := r.position - float64(idx)
		a := r.frame(input, idx)
		b := r.frame(input, idx+1)
		for ch := 0; ch < r.channels; ch++ {
			interpolated := float64(a[ch])*(1.0-frac) + float64(b[ch])*frac
			output[outIdx*r.channels+ch] = int32(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep the final frame so the next chunk interpolates across the boundary
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.position -= float64(total - 1)
	if r.position < 0 {
		r.position = 0
	}
	r.primed = true

	return outIdx * r.channels
}

// frame returns frame i of the virtual input
func (r *Resampler) frame(input []int32, i int) []int32 {
	if r.primed {
		if i == 0 {
			return r.lastSample
		}
		i--
	}
	return input[i*r.channels : (i+1)*r.channels]
}

// OutputSamplesNeeded returns an output size large enough for one call with
// inputSamples of input
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples/r.channels + 1
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}
