// Package wav reads and writes mono 16-bit PCM RIFF/WAVE files. The speech
// client decodes synthesis responses with it and the audio stage writes the
// concatenated narration track with it.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	formatPCM     = 1
	headerSize    = 44
	bitsPerSample = 16
)

// Encode writes samples as a mono 16-bit PCM WAV stream.
func Encode(w io.Writer, sampleRate int, samples []int16) error {
	if sampleRate <= 0 {
		return errors.New("wav encode: sample rate must be positive")
	}
	dataSize := len(samples) * 2
	byteRate := sampleRate * bitsPerSample / 8

	var header [headerSize]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], bitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav encode: write header: %w", err)
	}

	buf := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wav encode: write samples: %w", err)
	}
	return nil
}

// Decode reads a mono 16-bit PCM WAV stream and returns the sample rate and
// samples. Multi-channel input is rejected.
func Decode(r io.Reader) (int, []int16, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, nil, fmt.Errorf("wav decode: read header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, nil, errors.New("wav decode: not a RIFF/WAVE stream")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		sawFormat  bool
	)
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, nil, errors.New("wav decode: missing data chunk")
			}
			return 0, nil, fmt.Errorf("wav decode: read chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, nil, fmt.Errorf("wav decode: read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return 0, nil, errors.New("wav decode: short fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != formatPCM {
				return 0, nil, fmt.Errorf("wav decode: unsupported format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
			sawFormat = true
		case "data":
			if !sawFormat {
				return 0, nil, errors.New("wav decode: data chunk before fmt chunk")
			}
			if channels != 1 {
				return 0, nil, fmt.Errorf("wav decode: expected mono, got %d channels", channels)
			}
			if bits != bitsPerSample {
				return 0, nil, fmt.Errorf("wav decode: expected 16-bit samples, got %d", bits)
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, nil, fmt.Errorf("wav decode: read data chunk: %w", err)
			}
			samples := make([]int16, len(body)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(body[i*2:]))
			}
			return sampleRate, samples, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return 0, nil, fmt.Errorf("wav decode: skip %s chunk: %w", chunkID, err)
			}
		}
	}
}
