package media

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WavDuration reads a RIFF/WAVE header and returns the audio duration in
// seconds, derived from the data chunk size and the byte rate.
func WavDuration(data []byte) (float64, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, errors.New("media: not a RIFF/WAVE stream")
	}

	var byteRate uint32
	var dataSize uint32
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return 0, errors.New("media: truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataSize = chunkSize
			if remaining := len(data) - body; dataSize == 0 || int(dataSize) > remaining {
				dataSize = uint32(remaining)
			}
		}

		// Chunks are word-aligned.
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
		if byteRate > 0 && dataSize > 0 {
			break
		}
	}

	if byteRate == 0 {
		return 0, errors.New("media: missing fmt chunk")
	}
	if dataSize == 0 {
		return 0, fmt.Errorf("media: missing data chunk")
	}
	return float64(dataSize) / float64(byteRate), nil
}
