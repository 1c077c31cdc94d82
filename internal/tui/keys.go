package tui

import "strconv"

const (
	defaultOctave = 4
	minOctave     = 0
	maxOctave     = 8
)

// pianoKeys lays a chromatic octave and a bit over the home row, with the
// black keys on the row above.
var pianoKeys = map[string]uint8{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6, "g": 7,
	"y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14, "p": 15, ";": 16,
}

// noteForKey returns the MIDI key played by a keyboard key in octave, where
// octave 4 starts at middle C.
func noteForKey(key string, octave int) (uint8, bool) {
	offset, ok := pianoKeys[key]
	if !ok {
		return 0, false
	}

	note := 12*(octave+1) + int(offset)
	if note < 0 || note > 127 {
		return 0, false
	}
	return uint8(note), true
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName formats a MIDI key as scientific pitch, 60 -> C4.
func noteName(key uint8) string {
	return noteNames[key%12] + strconv.Itoa(int(key)/12-1)
}
