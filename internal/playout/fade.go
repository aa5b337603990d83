package playout

// Smoothstep returns the smoothstep interpolation 3t^2 - 2t^3 for t in [0,1].
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// edgeFadeFrames is how many 20ms frames a narration break ramps over when
// entering and leaving the air (240ms per edge).
const edgeFadeFrames = 12

// fadeGain returns the linear ramp position for frame i of totalFrames:
// 0 at the edges, 1 across the body. The ramp never covers more than half
// the track.
func fadeGain(i, totalFrames int) float64 {
	ramp := edgeFadeFrames
	if ramp > totalFrames/2 {
		ramp = totalFrames / 2
	}
	if ramp == 0 {
		return 1
	}
	if i < ramp {
		return float64(i) / float64(ramp)
	}
	if rem := totalFrames - 1 - i; rem < ramp {
		return float64(rem) / float64(ramp)
	}
	return 1
}

// applyGain scales a frame in place through the smoothstep curve.
func applyGain(frame []int16, gain float64) {
	g := Smoothstep(gain)
	for i, s := range frame {
		v := float64(s) * g
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		frame[i] = int16(v)
	}
}
