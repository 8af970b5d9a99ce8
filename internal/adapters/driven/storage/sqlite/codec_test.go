package sqlite

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

func TestFloat32Codec_RoundTrip(t *testing.T) {
	original := []float32{0.1, -0.5, 3.14159, 0, -100.25}

	data := float32SliceToBytes(original)
	restored := bytesToFloat32Slice(data)

	assert.Equal(t, original, restored)
	assert.Len(t, data, len(original)*4)
}

func TestQuantize_RoundTripError(t *testing.T) {
	original := []float32{0.8, -0.3, 0.05, -0.99, 0.42, 0.0001, -0.6}

	scale, q := quantize(original)
	restored := dequantize(scale, q)

	require.Len(t, restored, len(original))
	var maxAbs float32
	for _, v := range original {
		if a := float32(math.Abs(float64(v))); a > maxAbs {
			maxAbs = a
		}
	}
	// Symmetric int8 quantization bounds the error to half a step.
	step := maxAbs / 127
	for i := range original {
		assert.InDelta(t, original[i], restored[i], float64(step)/2+1e-6,
			"component %d", i)
	}
}

func TestQuantize_ZeroVector(t *testing.T) {
	scale, q := quantize([]float32{0, 0, 0})

	assert.Zero(t, scale)
	assert.Equal(t, []int8{0, 0, 0}, q)
	assert.Equal(t, []float32{0, 0, 0}, dequantize(scale, q))
}

func TestQuantizedBlob_RoundTrip(t *testing.T) {
	scale, q := quantize([]float32{0.5, -0.25, 1.0, -1.0})

	data := quantizedToBytes(scale, q)
	gotScale, gotQ := bytesToQuantized(data)

	assert.Equal(t, scale, gotScale)
	assert.Equal(t, q, gotQ)
	assert.Len(t, data, len(q)+4)
}

func TestEncodeVector_BlobLengthDisambiguates(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}

	raw := encodeVector(v, domain.VectorPrecisionFloat32)
	quantized := encodeVector(v, domain.VectorPrecisionInt8)

	assert.Len(t, raw, len(v)*4)
	assert.Len(t, quantized, len(v)+4)
	assert.False(t, isQuantizedBlob(raw, len(v)))
	assert.True(t, isQuantizedBlob(quantized, len(v)))
}

func TestDecodeVector(t *testing.T) {
	v := []float32{0.25, -0.75, 0.5}

	raw, err := decodeVector(encodeVector(v, domain.VectorPrecisionFloat32), 3)
	require.NoError(t, err)
	assert.Equal(t, v, raw)

	approx, err := decodeVector(encodeVector(v, domain.VectorPrecisionInt8), 3)
	require.NoError(t, err)
	for i := range v {
		assert.InDelta(t, v[i], approx[i], 0.01)
	}

	_, err = decodeVector([]byte{1, 2, 3}, 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity(a, []float32{-1, 0, 0}), 1e-9)

	// Symmetry
	c := []float32{0.3, 0.7, -0.2}
	d := []float32{-0.1, 0.9, 0.4}
	assert.InDelta(t, cosineSimilarity(c, d), cosineSimilarity(d, c), 1e-12)

	// Zero-norm operand yields 0
	assert.Zero(t, cosineSimilarity(a, []float32{0, 0, 0}))
}

func TestCosineSimilarityInt8_TracksFloatCosine(t *testing.T) {
	a := []float32{0.9, -0.4, 0.2, 0.66, -0.15, 0.31, 0.08, -0.77}
	b := []float32{0.1, 0.35, -0.6, 0.42, 0.9, -0.05, 0.27, 0.53}

	_, qa := quantize(a)
	_, qb := quantize(b)

	exact := cosineSimilarity(a, b)
	approx := cosineSimilarityInt8(qa, qb)

	// Quantization perturbs the angle only slightly.
	assert.InDelta(t, exact, approx, 0.02)
}
