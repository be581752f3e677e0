package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrCorrupted marks a persisted embedding that cannot be decoded into a valid Vector.
var ErrCorrupted = errors.New("corrupted embedding")

const float32Size = 4

// Encode serializes v as little-endian float32 components.
func Encode(v Vector) []byte {
	out := make([]byte, len(v)*float32Size)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*float32Size:(i+1)*float32Size], math.Float32bits(x))
	}
	return out
}

// Decode parses bytes produced by Encode. When dims is positive the payload must hold exactly
// dims components. Errors wrap ErrCorrupted.
func Decode(b []byte, dims int) (Vector, error) {
	if len(b) == 0 || len(b)%float32Size != 0 {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrCorrupted, len(b))
	}
	n := len(b) / float32Size
	if dims > 0 && n != dims {
		return nil, fmt.Errorf("%w: %d components, expected %d", ErrCorrupted, n, dims)
	}
	out := make(Vector, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*float32Size : (i+1)*float32Size]))
	}
	if !Finite(out) {
		return nil, fmt.Errorf("%w: non-finite component", ErrCorrupted)
	}
	return out, nil
}

// Validate checks a decoded vector against the expected dimensionality. Errors wrap ErrCorrupted.
func Validate(v Vector, dims int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrCorrupted)
	}
	if dims > 0 && len(v) != dims {
		return fmt.Errorf("%w: %d components, expected %d", ErrCorrupted, len(v), dims)
	}
	if !Finite(v) {
		return fmt.Errorf("%w: non-finite component", ErrCorrupted)
	}
	return nil
}
