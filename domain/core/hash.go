package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Fingerprint produces a short deterministic digest of a float64 series.
// Used to log reproducibility fingerprints of result tables and bootstrap
// pools so that seeded runs can be compared across machines.
func Fingerprint(values []float64) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range values {
		// NaN payloads differ across platforms; collapse them to one bit pattern
		bits := math.Float64bits(v)
		if math.IsNaN(v) {
			bits = math.Float64bits(math.NaN())
		}
		binary.LittleEndian.PutUint64(buf[:], bits)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
