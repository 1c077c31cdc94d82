package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/internal/testutil"
)

type recordingVoice struct {
	prepared core.ProcessorConfig
	active   bool
	note     Note

	started   []Note
	bends     []Note
	pressures []Note
	timbres   []Note
	stops     []bool
	chunks    []int
}

func (v *recordingVoice) Prepare(cfg core.ProcessorConfig) error {
	v.prepared = cfg
	return nil
}

func (v *recordingVoice) RenderNextBlock(out [][]float64, start, n int) {
	v.chunks = append(v.chunks, n)
	for ch := range out {
		for i := start; i < start+n; i++ {
			out[ch][i] += 1
		}
	}
}

func (v *recordingVoice) NoteStarted(n Note) {
	v.active = true
	v.note = n
	v.started = append(v.started, n)
}

func (v *recordingVoice) NotePitchbendChanged(n Note) { v.bends = append(v.bends, n) }
func (v *recordingVoice) NotePressureChanged(n Note)  { v.pressures = append(v.pressures, n) }
func (v *recordingVoice) NoteTimbreChanged(n Note)    { v.timbres = append(v.timbres, n) }
func (v *recordingVoice) NoteKeyStateChanged(Note)    {}

func (v *recordingVoice) NoteStopped(allowTailOff bool) {
	v.active = false
	v.stops = append(v.stops, allowTailOff)
}

func (v *recordingVoice) IsActive() bool { return v.active }

func newRecordingPool(t *testing.T, n int, opts ...Option) (*Pool, []*recordingVoice) {
	t.Helper()

	recs := make([]*recordingVoice, n)
	voices := make([]Voice, n)
	for i := range recs {
		recs[i] = &recordingVoice{}
		voices[i] = recs[i]
	}

	p, err := NewPool(voices, opts...)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	cfg := core.ApplyProcessorOptions(core.WithBlockSize(64))
	if err := p.Prepare(cfg); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return p, recs
}

func TestNewPoolValidation(t *testing.T) {
	if _, err := NewPool(nil); err == nil {
		t.Fatal("expected error for empty pool")
	}
	if _, err := NewPool([]Voice{nil}); err == nil {
		t.Fatal("expected error for nil voice")
	}
	for _, r := range []float64{0, -1, 97, math.NaN()} {
		if _, err := NewPool([]Voice{&recordingVoice{}}, WithPitchBendRange(r)); err == nil {
			t.Fatalf("expected error for bend range %v", r)
		}
	}
}

func TestPoolPrepareReachesEveryVoice(t *testing.T) {
	_, recs := newRecordingPool(t, 3)
	for i, r := range recs {
		if r.prepared.BlockSize != 64 {
			t.Fatalf("voice %d prepared with %#v", i, r.prepared)
		}
	}
}

func TestPoolStealsOldestNote(t *testing.T) {
	p, recs := newRecordingPool(t, 4)

	for key := uint8(60); key < 65; key++ {
		if !p.NoteOn(0, key, 1) {
			t.Fatalf("note %d not assigned", key)
		}
	}

	if got := p.ActiveVoices(); got != 4 {
		t.Fatalf("active = %d, want 4", got)
	}
	if len(recs[0].stops) != 1 || recs[0].stops[0] {
		t.Fatalf("voice 0 stops = %v, want one hard stop", recs[0].stops)
	}
	if recs[0].note.Key != 64 {
		t.Fatalf("stolen voice plays %d, want 64", recs[0].note.Key)
	}

	// The next steal takes the now oldest note, 61 on voice 1.
	p.NoteOn(0, 65, 1)
	if recs[1].note.Key != 65 {
		t.Fatalf("second steal went to key %d on voice 1", recs[1].note.Key)
	}
}

func TestPoolWithoutStealingDropsNotes(t *testing.T) {
	p, recs := newRecordingPool(t, 2, WithVoiceStealing(false))

	p.NoteOn(0, 60, 1)
	p.NoteOn(0, 61, 1)
	if p.NoteOn(0, 62, 1) {
		t.Fatal("note assigned with all voices busy and stealing disabled")
	}
	for i, r := range recs {
		if len(r.stops) != 0 {
			t.Fatalf("voice %d was stopped", i)
		}
	}
}

func TestPoolRetriggersSameKey(t *testing.T) {
	p, recs := newRecordingPool(t, 4)

	p.NoteOn(2, 60, 0.5)
	p.NoteOn(2, 60, 0.9)

	if got := p.ActiveVoices(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
	if len(recs[0].started) != 2 || recs[0].started[1].Velocity != 0.9 {
		t.Fatalf("voice 0 starts = %#v", recs[0].started)
	}

	// Same key on another channel is a different note.
	p.NoteOn(3, 60, 1)
	if got := p.ActiveVoices(); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
}

func TestPoolNoteOffAndZeroVelocity(t *testing.T) {
	p, recs := newRecordingPool(t, 2)

	p.NoteOn(0, 60, 1)
	p.NoteOn(0, 62, 1)
	p.NoteOff(0, 60)
	if recs[0].active || len(recs[0].stops) != 1 || !recs[0].stops[0] {
		t.Fatalf("voice 0 active=%v stops=%v", recs[0].active, recs[0].stops)
	}

	p.NoteOn(0, 62, 0)
	if p.ActiveVoices() != 0 {
		t.Fatalf("active = %d after zero-velocity note-on", p.ActiveVoices())
	}

	// Releasing an unknown key is a no-op.
	p.NoteOff(0, 99)
}

func TestPoolPitchBend(t *testing.T) {
	p, recs := newRecordingPool(t, 3)

	p.NoteOn(0, 60, 1)
	p.NoteOn(1, 64, 1)
	p.PitchWheel(0, -8192)

	if len(recs[0].bends) != 1 || recs[0].bends[0].PitchBend != -2 {
		t.Fatalf("voice 0 bends = %#v", recs[0].bends)
	}
	if len(recs[1].bends) != 0 {
		t.Fatalf("voice on other channel got bends %#v", recs[1].bends)
	}

	// New notes inherit the channel bend.
	p.NoteOn(0, 67, 1)
	if got := recs[2].note.PitchBend; got != -2 {
		t.Fatalf("new note bend = %v, want -2", got)
	}
}

func TestPoolPitchBendRange(t *testing.T) {
	p, recs := newRecordingPool(t, 1, WithPitchBendRange(12))
	p.NoteOn(0, 60, 1)
	p.PitchWheel(0, 4096)

	if got := recs[0].bends[0].PitchBend; got != 6 {
		t.Fatalf("bend = %v, want 6", got)
	}
	if p.PitchBendRange() != 12 {
		t.Fatalf("range = %v", p.PitchBendRange())
	}
}

func TestPoolPressureAndTimbre(t *testing.T) {
	p, recs := newRecordingPool(t, 1)
	p.NoteOn(5, 60, 1)
	p.ChannelPressure(5, 0.25)
	p.Timbre(5, 2)

	if len(recs[0].pressures) != 1 || recs[0].pressures[0].Pressure != 0.25 {
		t.Fatalf("pressures = %#v", recs[0].pressures)
	}
	if len(recs[0].timbres) != 1 || recs[0].timbres[0].Timbre != 1 {
		t.Fatalf("timbres = %#v", recs[0].timbres)
	}
}

func TestPoolAllNotesOff(t *testing.T) {
	p, _ := newRecordingPool(t, 4)
	for key := uint8(60); key < 63; key++ {
		p.NoteOn(0, key, 1)
	}
	p.AllNotesOff()

	if got := p.ActiveVoices(); got != 0 {
		t.Fatalf("active = %d, want 0", got)
	}
	if notes := p.ActiveNotes(nil); len(notes) != 0 {
		t.Fatalf("active notes = %#v", notes)
	}
}

func TestPoolRenderSplitsBlocks(t *testing.T) {
	p, recs := newRecordingPool(t, 2)
	p.NoteOn(0, 60, 1)

	out := testutil.Planar(2, 150)
	p.RenderNextBlock(out, 0, 150)

	want := []int{64, 64, 22}
	if len(recs[0].chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", recs[0].chunks, want)
	}
	for i := range want {
		if recs[0].chunks[i] != want[i] {
			t.Fatalf("chunks = %v, want %v", recs[0].chunks, want)
		}
	}
	if len(recs[1].chunks) != 0 {
		t.Fatalf("idle voice rendered %v", recs[1].chunks)
	}
}

func TestPoolMixesVoices(t *testing.T) {
	p, _ := newRecordingPool(t, 4)
	p.NoteOn(0, 60, 1)
	p.NoteOn(0, 64, 1)
	p.NoteOn(0, 67, 1)

	out := testutil.Planar(1, 10)
	p.RenderNextBlock(out, 0, 10)
	for i, v := range out[0] {
		if v != 3 {
			t.Fatalf("out[%d] = %v, want 3", i, v)
		}
	}
}

func TestPoolUnpreparedRendersNothing(t *testing.T) {
	rec := &recordingVoice{}
	p, err := NewPool([]Voice{rec})
	if err != nil {
		t.Fatal(err)
	}
	p.NoteOn(0, 60, 1)
	p.RenderNextBlock(testutil.Planar(1, 8), 0, 8)
	if len(rec.chunks) != 0 {
		t.Fatalf("unprepared pool rendered %v", rec.chunks)
	}
}

func TestPoolWithDualVoices(t *testing.T) {
	voices := make([]Voice, 4)
	for i := range voices {
		v, err := NewDualVoice()
		if err != nil {
			t.Fatal(err)
		}
		voices[i] = v
	}
	p, err := NewPool(voices)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Prepare(core.DefaultProcessorConfig()); err != nil {
		t.Fatal(err)
	}

	for key := uint8(60); key < 65; key++ {
		p.NoteOn(0, key, 0.8)
	}
	out := testutil.Planar(2, 1024)
	p.RenderNextBlock(out, 0, 1024)

	if p.ActiveVoices() != 4 {
		t.Fatalf("active = %d, want 4", p.ActiveVoices())
	}
	testutil.RequireFinite(t, out[0])
	testutil.RequireSliceNearlyEqual(t, out[1], out[0], 1e-12)

	allocs := testing.AllocsPerRun(20, func() {
		p.RenderNextBlock(out, 0, 512)
	})
	if allocs != 0 {
		t.Fatalf("RenderNextBlock allocated %.1f times per run", allocs)
	}
}
