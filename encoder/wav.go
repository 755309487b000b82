package encoder

import (
	"bytes"
	"encoding/binary"
)

// HeaderSize is the size of the canonical PCM WAV header.
const HeaderSize = 44

// WAVEncoder buffers samples and prepends the RIFF header on Bytes.
// whisper-cli reads plain 16 kHz mono s16le WAV, so no compression here.
type WAVEncoder struct {
	data        bytes.Buffer
	totalFrames uint64
	closed      bool
}

func NewWAV() *WAVEncoder {
	return &WAVEncoder{}
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	for _, s := range block {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		e.data.Write(b[:])
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	e.closed = true
	return nil
}

func (e *WAVEncoder) Bytes() []byte {
	dataLen := e.data.Len()
	out := make([]byte, 0, HeaderSize+dataLen)
	buf := bytes.NewBuffer(out)

	byteRate := SampleRate * Channels * BitsPerSample / 8
	blockAlign := Channels * BitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(Channels))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(BitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(e.data.Bytes())

	return buf.Bytes()
}

func (e *WAVEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

func (e *WAVEncoder) Format() Format { return FormatWAV }
