// Package encoder turns captured PCM into a container the speech engine
// accepts: WAV for the local whisper-cli binary, FLAC for uploads where
// size matters.
package encoder

import "encoding/binary"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Format names an output container.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	Format() Format
}

// New returns an encoder for the given format.
func New(format Format) (Encoder, error) {
	if format == FormatFLAC {
		return NewFlac()
	}
	return NewWAV(), nil
}

// EncodePCM runs raw little-endian 16-bit PCM through enc in encoder-sized
// blocks and closes it. A trailing odd byte is dropped.
func EncodePCM(enc Encoder, pcm []byte) error {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return err
		}
	}
	return enc.Close()
}
