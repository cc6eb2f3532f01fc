package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/wav"
)

// IsWAV проверяет RIFF/WAVE заголовок
func IsWAV(chunk []byte) bool {
	return len(chunk) >= 12 && string(chunk[0:4]) == "RIFF" && string(chunk[8:12]) == "WAVE"
}

// DecodeChunk превращает кусок аудио от клиента в linear16 PCM для распознавания.
// WAV декодируется, все остальное считается готовым PCM и возвращается как есть.
func DecodeChunk(chunk []byte) ([]byte, error) {
	if !IsWAV(chunk) {
		return chunk, nil
	}

	dec := wav.NewDecoder(bytes.NewReader(chunk))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("некорректный WAV фрагмент")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования WAV: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	out := make([]byte, 2*len(buf.Data))
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(toInt16(sample, bitDepth)))
	}
	return out, nil
}

func toInt16(sample, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		// 8-битный WAV беззнаковый
		return int16((sample - 128) << 8)
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	default:
		return int16(sample)
	}
}
