package transcoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encode an int buffer as 16 bit PCM WAV
func PCMToWav(buf *audio.IntBuffer, output io.WriteSeeker) error {
	e := wav.NewEncoder(output, buf.Format.SampleRate, BitDepth, buf.Format.NumChannels, 1) // 1 = PCM

	if err := e.Write(buf); err != nil {
		return fmt.Errorf("failed to encode wav; %w", err)
	}
	return e.Close()
}

// write PCM samples to a WAV file at path
func WriteWAV(path string, samples []int, sampleRate int, channels int) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file; %w", err)
	}
	defer outFile.Close()

	return PCMToWav(NewIntBuffer(samples, sampleRate, channels), outFile)
}

func NewIntBuffer(samples []int, sampleRate int, channels int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           samples,
		SourceBitDepth: BitDepth,
	}
}

// L16 returns the record's samples as big-endian signed 16 bit PCM
// (the audio/l16 wire format)
func (r *Record) L16() []byte {
	out := make([]byte, 2*len(r.Buffer.Data))
	for i, sample := range r.Buffer.Data {
		binary.BigEndian.PutUint16(out[2*i:], uint16(clamp16(sample)))
	}
	return out
}

func clamp16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
