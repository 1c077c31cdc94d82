package synth_test

import (
	"fmt"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/synth"
)

func ExampleNote_FrequencyHz() {
	n := synth.Note{Key: 69, PitchBend: 2}
	fmt.Printf("%.2f\n", n.FrequencyHz())
	// Output:
	// 493.88
}

func ExamplePool() {
	voices := make([]synth.Voice, 4)
	for i := range voices {
		v, err := synth.NewDualVoice()
		if err != nil {
			panic(err)
		}
		voices[i] = v
	}

	pool, err := synth.NewPool(voices)
	if err != nil {
		panic(err)
	}
	if err := pool.Prepare(core.DefaultProcessorConfig()); err != nil {
		panic(err)
	}

	for _, key := range []uint8{60, 64, 67, 71, 74} {
		pool.NoteOn(0, key, 0.8)
	}

	out := [][]float64{make([]float64, 512), make([]float64, 512)}
	pool.RenderNextBlock(out, 0, 512)

	fmt.Println(pool.ActiveVoices())
	// Output:
	// 4
}
