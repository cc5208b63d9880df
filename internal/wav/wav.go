// Package wav writes PCM audio as RIFF WAV files. The header carries
// placeholder sizes until Finalize patches them, so an aborted
// recording never leaves a file that parses as valid audio.
package wav

import (
	"encoding/binary"
	"fmt"
	"os"
)

// HeaderSize is the byte length of the canonical PCM WAV header.
const HeaderSize = 44

// Writer appends PCM data to a WAV file created by Create.
type Writer struct {
	f         *os.File
	path      string
	dataLen   int64
	finalized bool
}

// Create opens path for writing and lays down a header with zeroed
// size fields.
func Create(path string, sampleRate, channels, bitsPerSample int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	w := &Writer{f: f, path: path}
	if err := w.writeHeader(sampleRate, channels, bitsPerSample, 0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader(sampleRate, channels, bitsPerSample int, dataLen uint32) error {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var header struct {
		RIFF          [4]byte
		RiffSize      uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}

	copy(header.RIFF[:], "RIFF")
	header.RiffSize = 36 + dataLen
	copy(header.WAVE[:], "WAVE")
	copy(header.Fmt[:], "fmt ")
	header.FmtSize = 16
	header.AudioFormat = 1 // PCM
	header.Channels = uint16(channels)
	header.SampleRate = uint32(sampleRate)
	header.ByteRate = uint32(byteRate)
	header.BlockAlign = uint16(blockAlign)
	header.BitsPerSample = uint16(bitsPerSample)
	copy(header.Data[:], "data")
	header.DataSize = dataLen

	if err := binary.Write(w.f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	return nil
}

// Write appends PCM bytes after the header.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finalized {
		return 0, fmt.Errorf("write to finalized wav file")
	}
	n, err := w.f.Write(p)
	w.dataLen += int64(n)
	if err != nil {
		return n, fmt.Errorf("write wav data: %w", err)
	}
	return n, nil
}

// DataLen returns the PCM bytes written so far.
func (w *Writer) DataLen() int64 {
	return w.dataLen
}

// Finalize patches the header size fields and closes the file. Only a
// finalized file is a valid recording.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	if _, err := w.f.Seek(4, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("seek wav header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint32(36+w.dataLen)); err != nil {
		w.f.Close()
		return fmt.Errorf("patch riff size: %w", err)
	}

	if _, err := w.f.Seek(40, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("seek data size: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint32(w.dataLen)); err != nil {
		w.f.Close()
		return fmt.Errorf("patch data size: %w", err)
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

// Close releases the file handle without patching the header. The
// partial, non-finalized file stays on disk for the caller to keep or
// remove.
func (w *Writer) Close() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

// Abort closes and removes the partial file.
func (w *Writer) Abort() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	w.f.Close()
	if err := os.Remove(w.path); err != nil {
		return fmt.Errorf("remove partial wav file: %w", err)
	}
	return nil
}
