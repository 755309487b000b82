package encoder

import (
	"encoding/binary"
	"math"
	"testing"
)

// sineSamples generates n samples of a 440 Hz tone.
func sineSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}
	return samples
}

func TestFlacEncoder(t *testing.T) {
	samples := sineSamples(SampleRate) // one second

	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := enc.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestFlacEncoderPartialBlock(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	partial := sineSamples(BlockSize / 4)
	if err := enc.EncodeBlock(partial); err != nil {
		t.Fatalf("EncodeBlock partial: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != uint64(len(partial)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(partial))
	}
}

func TestWAVEncoderHeader(t *testing.T) {
	samples := sineSamples(1000)

	enc := NewWAV()
	if err := enc.EncodeBlock(samples); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := enc.Bytes()
	wantLen := HeaderSize + len(samples)*2
	if len(out) != wantLen {
		t.Fatalf("output length = %d, want %d", len(out), wantLen)
	}
	if string(out[:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(out[24:]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}
	if ch := binary.LittleEndian.Uint16(out[22:]); ch != Channels {
		t.Errorf("channels = %d, want %d", ch, Channels)
	}
	if dataLen := binary.LittleEndian.Uint32(out[40:]); int(dataLen) != len(samples)*2 {
		t.Errorf("data length = %d, want %d", dataLen, len(samples)*2)
	}

	// Round-trip the first sample.
	got := int16(binary.LittleEndian.Uint16(out[HeaderSize:]))
	if got != samples[0] {
		t.Errorf("first sample = %d, want %d", got, samples[0])
	}
}

func TestEncodePCM(t *testing.T) {
	samples := sineSamples(BlockSize + 100) // forces a partial final block
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	enc := NewWAV()
	if err := EncodePCM(enc, pcm); err != nil {
		t.Fatalf("EncodePCM: %v", err)
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}
}
