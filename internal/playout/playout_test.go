package playout

import (
	"testing"
	"time"
)

// --- Constants ---

func TestFrameConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

func TestSourceString(t *testing.T) {
	if got := SourceLibrary.String(); got != "library" {
		t.Errorf("SourceLibrary.String() = %q, want 'library'", got)
	}
	if got := SourceNarration.String(); got != "narration" {
		t.Errorf("SourceNarration.String() = %q, want 'narration'", got)
	}
}

// --- Smoothstep / fade ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := Smoothstep(tt.input); got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < %v", x, val, prev)
		}
		prev = val
	}
}

func TestFadeGainEdges(t *testing.T) {
	total := 100 // well beyond two ramps

	if g := fadeGain(0, total); g != 0 {
		t.Errorf("gain at first frame = %v, want 0", g)
	}
	if g := fadeGain(total-1, total); g != 0 {
		t.Errorf("gain at last frame = %v, want 0", g)
	}
	if g := fadeGain(total/2, total); g != 1 {
		t.Errorf("gain at midpoint = %v, want 1", g)
	}

	// entry and exit ramps mirror each other
	for i := 0; i < edgeFadeFrames; i++ {
		in := fadeGain(i, total)
		out := fadeGain(total-1-i, total)
		if in != out {
			t.Errorf("asymmetric ramp at %d: in=%v out=%v", i, in, out)
		}
	}
}

func TestFadeGainShortTrack(t *testing.T) {
	// the ramp shrinks so it never covers more than half the track
	total := 4
	for i := 0; i < total; i++ {
		g := fadeGain(i, total)
		if g < 0 || g > 1 {
			t.Errorf("gain out of range at frame %d: %v", i, g)
		}
	}

	if g := fadeGain(0, 1); g != 1 {
		t.Errorf("single-frame track gain = %v, want 1 (no ramp possible)", g)
	}
}

func TestApplyGainSilencesAtZero(t *testing.T) {
	frame := []int16{1000, -1000, 32767, -32768}
	applyGain(frame, 0)
	for i, s := range frame {
		if s != 0 {
			t.Errorf("sample %d = %d, want 0 at zero gain", i, s)
		}
	}
}

func TestApplyGainUnityKeepsSamples(t *testing.T) {
	frame := []int16{1000, -1000, 32767, -32768}
	want := []int16{1000, -1000, 32767, -32768}
	applyGain(frame, 1)
	for i, s := range frame {
		if s != want[i] {
			t.Errorf("sample %d = %d, want %d at unity gain", i, s, want[i])
		}
	}
}

// --- SamplesToBytes ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// 256 = 0x0100 -> little-endian [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)

	recovered := make([]int16, len(buf)/2)
	for i := range recovered {
		recovered[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}

	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}
