// Package audio turns collision events into short blips on the default
// output device.
package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/san-kum/bounce/internal/dynamo"
)

const (
	SampleRate = 44100
	BufferSize = 512

	maxVoices = 32
	decay     = 18.0 // 1/s
	cutoff    = 2400.0
)

type voice struct {
	freq  float64
	amp   float64
	pan   float64
	phase float64
	age   float64
}

// Processor mixes one decaying voice per collision. Play may be called from
// the simulation goroutine while the stream callback renders.
type Processor struct {
	Stream *portaudio.Stream
	Volume float64
	Active bool

	mu          sync.Mutex
	voices      []voice
	filterState [2]float64
}

func NewProcessor() *Processor {
	return &Processor{Volume: 0.4}
}

func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.ProcessAudio)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	a.Stream = stream
	a.Active = true
	return nil
}

func (a *Processor) Stop() {
	if a.Stream != nil {
		a.Stream.Stop()
		a.Stream.Close()
		a.Stream = nil
	}
	if a.Active {
		portaudio.Terminate()
	}
	a.Active = false
}

// Pitch maps an impact speed to a frequency: ball contacts sit an octave
// above wall contacts and harder hits ring higher.
func Pitch(e dynamo.Event) float64 {
	base := 220.0
	if e.Kind == dynamo.BallBall {
		base = 440.0
	}
	return base * math.Pow(2, math.Min(e.Speed, 8)/8)
}

// Loudness grows with impact speed and saturates at 1.
func Loudness(speed float64) float64 {
	return 1 - math.Exp(-speed/3)
}

func pan(e dynamo.Event) float64 {
	switch e.Wall {
	case dynamo.Left:
		return -0.8
	case dynamo.Right:
		return 0.8
	}
	return 0
}

// Play queues a blip for every event. The oldest voices are dropped past
// the voice limit.
func (a *Processor) Play(events []dynamo.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range events {
		amp := Loudness(e.Speed)
		if amp < 1e-3 {
			continue
		}
		a.voices = append(a.voices, voice{freq: Pitch(e), amp: amp, pan: pan(e)})
	}
	if n := len(a.voices) - maxVoices; n > 0 {
		a.voices = a.voices[n:]
	}
}

// Voices reports how many blips are still sounding.
func (a *Processor) Voices() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.voices)
}

// Triangle Wave: smooth, no harsh buzz
func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4.0*math.Abs(p-0.5) - 1.0
}

// Low Pass Filter (One Pole)
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// ProcessAudio is the portaudio stream callback. It renders the active
// voices into out and retires the ones that have faded.
func (a *Processor) ProcessAudio(in []float32, out [][]float32) {
	const dt = 1.0 / SampleRate

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range out[0] {
		var l, r float64
		for k := range a.voices {
			v := &a.voices[k]
			s := triangle(v.phase) * v.amp * math.Exp(-decay*v.age)
			l += s * (1 - v.pan) / 2
			r += s * (1 + v.pan) / 2
			v.phase += v.freq * dt
			v.age += dt
		}
		a.filterState[0] = lpf(l, cutoff, dt, a.filterState[0])
		a.filterState[1] = lpf(r, cutoff, dt, a.filterState[1])
		out[0][i] = float32(math.Tanh(a.filterState[0] * a.Volume))
		if len(out) > 1 {
			out[1][i] = float32(math.Tanh(a.filterState[1] * a.Volume))
		}
	}

	live := a.voices[:0]
	for _, v := range a.voices {
		if v.amp*math.Exp(-decay*v.age) > 1e-4 {
			live = append(live, v)
		}
	}
	a.voices = live
}
