// Package sizefmt formats byte sizes and computes reduction percentages for
// user-facing reporting.
package sizefmt

import (
	"fmt"
	"math"
	"strconv"
)

var units = []string{"Bytes", "KB", "MB", "GB", "TB"}

// Format renders n as a human readable size with 1024-based units and up to
// two decimals. Format(0) == "0 Bytes".
func Format(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	// Trim trailing zeros: 1.00 -> "1", 1.50 -> "1.5".
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	return fmt.Sprintf("%s %s", s, units[i])
}

// Reduction returns the size reduction percentage, rounded to the nearest
// integer. A non-positive original size yields 0 (divide-by-zero guard).
func Reduction(originalSize, compressedSize int64) int {
	if originalSize <= 0 {
		return 0
	}
	return int(math.Round(float64(originalSize-compressedSize) / float64(originalSize) * 100))
}
