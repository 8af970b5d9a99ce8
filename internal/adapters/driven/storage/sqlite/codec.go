package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// Vector blob formats. Raw: dimensions little-endian float32 values
// (4*dimensions bytes). Quantized: a 4-byte little-endian float32 scale
// followed by dimensions signed bytes (4+dimensions bytes). Blob length
// disambiguates the two.

// float32SliceToBytes encodes a vector as raw little-endian float32.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a raw little-endian float32 vector.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// quantize compresses a vector to int8 with a symmetric per-vector
// scale (scale = 127 / max|v|). A zero vector quantizes with scale 0.
func quantize(v []float32) (scale float32, q []int8) {
	var maxAbs float32
	for _, x := range v {
		if a := float32(math.Abs(float64(x))); a > maxAbs {
			maxAbs = a
		}
	}
	q = make([]int8, len(v))
	if maxAbs == 0 {
		return 0, q
	}
	scale = 127 / maxAbs
	for i, x := range v {
		q[i] = int8(math.Round(float64(x * scale)))
	}
	return scale, q
}

// dequantize restores an approximate float vector.
func dequantize(scale float32, q []int8) []float32 {
	v := make([]float32, len(q))
	if scale == 0 {
		return v
	}
	for i, x := range q {
		v[i] = float32(x) / scale
	}
	return v
}

// quantizedToBytes encodes scale + int8 values.
func quantizedToBytes(scale float32, q []int8) []byte {
	buf := make([]byte, 4+len(q))
	binary.LittleEndian.PutUint32(buf, math.Float32bits(scale))
	for i, x := range q {
		buf[4+i] = byte(x)
	}
	return buf
}

// bytesToQuantized decodes scale + int8 values.
func bytesToQuantized(data []byte) (scale float32, q []int8) {
	scale = math.Float32frombits(binary.LittleEndian.Uint32(data))
	q = make([]int8, len(data)-4)
	for i := range q {
		q[i] = int8(data[4+i])
	}
	return scale, q
}

// encodeVector encodes per the requested precision.
func encodeVector(v []float32, precision domain.VectorPrecision) []byte {
	if precision == domain.VectorPrecisionInt8 {
		scale, q := quantize(v)
		return quantizedToBytes(scale, q)
	}
	return float32SliceToBytes(v)
}

// isQuantizedBlob reports whether a blob uses the quantized format.
func isQuantizedBlob(data []byte, dimensions int) bool {
	return len(data) == dimensions+4
}

// decodeVector decodes either blob format back to float32.
func decodeVector(data []byte, dimensions int) ([]float32, error) {
	switch len(data) {
	case dimensions * 4:
		return bytesToFloat32Slice(data), nil
	case dimensions + 4:
		scale, q := bytesToQuantized(data)
		return dequantize(scale, q), nil
	default:
		return nil, fmt.Errorf("%w: blob length %d for %d dimensions",
			domain.ErrDimensionMismatch, len(data), dimensions)
	}
}

// cosineSimilarity computes the cosine of two equal-length float
// vectors. A zero-norm operand yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// cosineSimilarityInt8 computes cosine directly on quantized values.
// The per-vector scale factors cancel in the ratio, so they are not
// needed here.
func cosineSimilarityInt8(a, b []int8) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
