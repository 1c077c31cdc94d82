// Package buffer provides allocation-free sample storage for the audio path:
// a planar multichannel scratch Block sized once at prepare time, and a
// SnapshotQueue that hands fixed-size sample snapshots from the audio thread
// to a single consumer without locks.
package buffer
