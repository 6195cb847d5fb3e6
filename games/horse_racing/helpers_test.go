package horse_racing

import (
	"time"
)

// scriptedRNG replays vals in a loop.
type scriptedRNG struct {
	vals []float64
	i    int
}

func (s *scriptedRNG) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// favorRNG makes lane `fast` draw near-maximal speeds and every other lane the
// minimum, as long as all lanes are still running.
func favorRNG(lanes, fast int) *scriptedRNG {
	vals := make([]float64, lanes*2)
	vals[fast*2] = 0.99
	vals[fast*2+1] = 0.99
	return &scriptedRNG{vals: vals}
}

type recordingPresenter struct {
	frames      [][]HorseView
	phases      []Phase
	settlements []Settlement
}

func (p *recordingPresenter) ShowRoster(h []HorseView) { p.frames = append(p.frames, h) }
func (p *recordingPresenter) ShowPhase(ph Phase) { p.phases = append(p.phases, ph) }
func (p *recordingPresenter) ShowSettlement(s Settlement) { p.settlements = append(p.settlements, s) }

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(16 * time.Millisecond)
		return t
	}
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func newTestRace(t fataler, rng RNG, p Presenter) *Race {
	r, err := NewRace(Options{RNG: rng, Presenter: p, Clock: fixedClock()})
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}
	return r
}

func runToEnd(r *Race) int {
	ticks := 0
	for !r.Tick() {
		ticks++
	}
	return ticks + 1
}
