package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/internal/testutil"
)

func newPreparedVoice(t testing.TB, channels int) *DualVoice {
	t.Helper()

	v, err := NewDualVoice()
	if err != nil {
		t.Fatalf("NewDualVoice() error = %v", err)
	}
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(48000), core.WithBlockSize(512), core.WithChannels(channels))
	if err := v.Prepare(cfg); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return v
}

func TestDualVoicePrepareRejectsInvalidConfig(t *testing.T) {
	v, err := NewDualVoice()
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Prepare(core.ProcessorConfig{SampleRate: 0, BlockSize: 64, Channels: 2}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDualVoiceDetune(t *testing.T) {
	v := newPreparedVoice(t, 2)
	v.NoteStarted(Note{Key: 69, Velocity: 0.8})

	primary, secondary := v.Frequencies()
	if math.Abs(primary-440) > 1e-9 {
		t.Fatalf("primary = %v, want 440", primary)
	}
	if math.Abs(secondary-444.4) > 1e-9 {
		t.Fatalf("secondary = %v, want 444.4", secondary)
	}
	if !v.IsActive() {
		t.Fatal("voice should be active after NoteStarted")
	}
}

func TestDualVoicePitchbendUpdatesTargets(t *testing.T) {
	v := newPreparedVoice(t, 1)
	v.NoteStarted(Note{Key: 69, Velocity: 1})
	v.NotePitchbendChanged(Note{Key: 69, Velocity: 1, PitchBend: 12})

	primary, secondary := v.Frequencies()
	if math.Abs(primary-880) > 1e-9 || math.Abs(secondary-888.8) > 1e-9 {
		t.Fatalf("targets = %v, %v; want 880, 888.8", primary, secondary)
	}
	if got := v.CurrentNote().PitchBend; got != 12 {
		t.Fatalf("note bend = %v, want 12", got)
	}
}

func TestDualVoiceModulationCadence(t *testing.T) {
	v := newPreparedVoice(t, 2)
	v.NoteStarted(Note{Key: 60, Velocity: 1})

	out := testutil.Planar(2, 300)
	v.RenderNextBlock(out, 0, 300)

	if got := v.ModulationUpdates(); got != 2 {
		t.Fatalf("updates = %d, want 2", got)
	}
	if got := v.ModulationCounter(); got != 3 {
		t.Fatalf("counter = %d, want 3", got)
	}

	// The counter carries across blocks.
	v.RenderNextBlock(out, 0, 3)
	if got := v.ModulationUpdates(); got != 3 {
		t.Fatalf("updates = %d, want 3", got)
	}
	if got := v.ModulationCounter(); got != ModulationPeriod {
		t.Fatalf("counter = %d, want %d", got, ModulationPeriod)
	}
}

func TestDualVoiceCutoffFollowsLFO(t *testing.T) {
	v := newPreparedVoice(t, 2)
	if got := v.CutoffHz(); got != InitialCutoffHz {
		t.Fatalf("initial cutoff = %v, want %v", got, InitialCutoffHz)
	}

	v.NoteStarted(Note{Key: 60, Velocity: 1})
	out := testutil.Planar(2, ModulationPeriod)
	v.RenderNextBlock(out, 0, ModulationPeriod)

	// The LFO starts at the zero crossing of its sine.
	if got := v.CutoffHz(); math.Abs(got-1050) > 1e-6 {
		t.Fatalf("cutoff after first update = %v, want 1050", got)
	}

	for i := 0; i < 200; i++ {
		v.RenderNextBlock(out, 0, ModulationPeriod)
		if c := v.CutoffHz(); c < minCutoffHz-1e-9 || c > maxCutoffHz+1e-9 {
			t.Fatalf("cutoff %v outside [%v, %v]", c, minCutoffHz, maxCutoffHz)
		}
	}
}

func TestDualVoiceRendersAdditively(t *testing.T) {
	a := newPreparedVoice(t, 2)
	b := newPreparedVoice(t, 2)
	n := Note{Key: 57, Velocity: 0.5}
	a.NoteStarted(n)
	b.NoteStarted(n)

	clean := testutil.Planar(2, 256)
	biased := testutil.Planar(2, 256)
	for ch := range biased {
		for i := range biased[ch] {
			biased[ch][i] = 1
		}
	}

	a.RenderNextBlock(clean, 0, 256)
	b.RenderNextBlock(biased, 0, 256)

	if testutil.MaxAbs(clean[0]) == 0 {
		t.Fatal("voice rendered silence")
	}
	for ch := range clean {
		testutil.RequireFinite(t, clean[ch])
		for i := range clean[ch] {
			if d := biased[ch][i] - 1 - clean[ch][i]; math.Abs(d) > 1e-12 {
				t.Fatalf("ch%d[%d]: additive mismatch %v", ch, i, d)
			}
		}
	}
}

func TestDualVoiceRenderRespectsRange(t *testing.T) {
	v := newPreparedVoice(t, 1)
	v.NoteStarted(Note{Key: 64, Velocity: 1})

	out := testutil.Planar(1, 64)
	v.RenderNextBlock(out, 16, 32)

	for i, s := range out[0] {
		inside := i >= 16 && i < 48
		if !inside && s != 0 {
			t.Fatalf("sample %d outside render range = %v", i, s)
		}
	}
	if testutil.MaxAbs(out[0][16:48]) == 0 {
		t.Fatal("render range is silent")
	}
}

func TestDualVoiceLongBlockIsSplit(t *testing.T) {
	v := newPreparedVoice(t, 1)
	v.NoteStarted(Note{Key: 64, Velocity: 1})

	out := testutil.Planar(1, 2000)
	v.RenderNextBlock(out, 0, 2000)

	testutil.RequireFinite(t, out[0])
	if got := v.ModulationUpdates(); got != 2000/ModulationPeriod {
		t.Fatalf("updates = %d, want %d", got, 2000/ModulationPeriod)
	}
}

func TestDualVoiceNoteStopped(t *testing.T) {
	v := newPreparedVoice(t, 2)
	v.NoteStarted(Note{Channel: 3, Key: 60, Velocity: 1})
	v.NotePressureChanged(Note{Pressure: 1})
	v.NoteTimbreChanged(Note{Timbre: 1})
	v.NoteKeyStateChanged(Note{})
	v.NoteStopped(true)

	if v.IsActive() {
		t.Fatal("voice still active after NoteStopped")
	}
	if v.CurrentNote() != (Note{}) {
		t.Fatalf("note not cleared: %#v", v.CurrentNote())
	}
}

func TestDualVoiceUnpreparedRendersNothing(t *testing.T) {
	v, err := NewDualVoice()
	if err != nil {
		t.Fatal(err)
	}
	v.NoteStarted(Note{Key: 60, Velocity: 1})

	out := testutil.Planar(2, 32)
	v.RenderNextBlock(out, 0, 32)
	if testutil.MaxAbs(out[0]) != 0 {
		t.Fatal("unprepared voice produced output")
	}
}

func TestDualVoiceRenderZeroAlloc(t *testing.T) {
	v := newPreparedVoice(t, 2)
	v.NoteStarted(Note{Key: 60, Velocity: 1})
	out := testutil.Planar(2, 512)

	allocs := testing.AllocsPerRun(50, func() {
		v.RenderNextBlock(out, 0, 512)
	})
	if allocs != 0 {
		t.Fatalf("RenderNextBlock allocated %.1f times per run", allocs)
	}
}

func BenchmarkDualVoiceRender512(b *testing.B) {
	v := newPreparedVoice(b, 2)
	v.NoteStarted(Note{Key: 60, Velocity: 1})
	out := testutil.Planar(2, 512)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.RenderNextBlock(out, 0, 512)
	}
}

func TestDualVoiceFullVelocityStaysInRange(t *testing.T) {
	for _, key := range []uint8{33, 45, 57, 69, 81, 93} {
		v := newPreparedVoice(t, 2)
		v.NoteStarted(Note{Key: key, Velocity: 1})

		out := testutil.Planar(2, 512)
		peak := 0.0
		for range 200 {
			for ch := range out {
				core.Zero(out[ch])
			}
			v.RenderNextBlock(out, 0, 512)
			peak = math.Max(peak, testutil.MaxAbs(out[0]))
		}

		if peak > MasterGain {
			t.Fatalf("key %d: peak = %v, want <= %v", key, peak, MasterGain)
		}
		if peak < 0.05 {
			t.Fatalf("key %d: peak = %v, voice is nearly silent", key, peak)
		}
	}
}
