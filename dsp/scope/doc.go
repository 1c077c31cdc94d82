// Package scope captures trigger-aligned waveform snapshots on the audio
// thread and turns them into display frames on another goroutine.
//
// A Collector watches the instrument output for a rising edge through the
// trigger level and pushes a fixed-size snapshot into a
// buffer.SnapshotQueue. A Display pops snapshots at its own pace and
// derives the waveform and spectrum to draw. Dropped snapshots on either
// side are normal: the display shows the latest data it has.
package scope
