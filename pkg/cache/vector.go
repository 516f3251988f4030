package cache

import (
	"encoding/binary"
	"math"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// vectorMagic tags encoded vectors so stale payloads from another format
// are rejected instead of misread.
var vectorMagic = [4]byte{'n', 's', 'v', '1'}

// EncodeVector encodes v as a magic header, a uint64 length and
// little-endian float64 values.
func EncodeVector(v []float64) []byte {
	buf := make([]byte, 12+8*len(v))
	copy(buf, vectorMagic[:])
	binary.LittleEndian.PutUint64(buf[4:], uint64(len(v)))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[12+8*i:], math.Float64bits(x))
	}
	return buf
}

// DecodeVector decodes a payload produced by EncodeVector.
func DecodeVector(data []byte) ([]float64, error) {
	if len(data) < 12 || [4]byte(data[:4]) != vectorMagic {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not an encoded vector")
	}
	n := binary.LittleEndian.Uint64(data[4:12])
	if body := len(data) - 12; body%8 != 0 || uint64(body/8) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "vector length %d does not match payload of %d bytes", n, len(data)-12)
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[12+8*i:]))
	}
	return v, nil
}
