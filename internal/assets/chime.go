package assets

import (
	"encoding/binary"
	"math"
)

// Chime synthesis parameters. A short two-note ding, 16-bit mono PCM.
const (
	sampleRate = 44100
	noteLen    = 0.18 // seconds per note
)

var chimeNotes = []float64{880.0, 1318.51} // A5 then E6

// chimeWAV renders the default notification chime as a complete RIFF/WAVE
// file. Deterministic: same bytes every call.
func chimeWAV() []byte {
	perNote := int(sampleRate * noteLen)
	samples := make([]int16, 0, perNote*len(chimeNotes))

	for _, freq := range chimeNotes {
		for i := 0; i < perNote; i++ {
			t := float64(i) / sampleRate
			// Exponential decay keeps the tail from clicking.
			env := math.Exp(-6 * t / noteLen)
			v := math.Sin(2*math.Pi*freq*t) * env * 0.45
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}

	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)
	le := binary.LittleEndian

	appendU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	appendU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, "RIFF"...)
	appendU32(uint32(36 + dataLen))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	appendU32(16)
	appendU16(1) // PCM
	appendU16(1) // mono
	appendU32(sampleRate)
	appendU32(sampleRate * 2) // byte rate
	appendU16(2)              // block align
	appendU16(16)             // bits per sample

	buf = append(buf, "data"...)
	appendU32(uint32(dataLen))
	for _, s := range samples {
		appendU16(uint16(s))
	}
	return buf
}
