package domain

import (
	"fmt"
	"math"
)

var byteSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatByteSize renders a byte count using base-1024 units with at most two
// decimals, e.g. 1536 -> "1.5 KB".
func FormatByteSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(byteSizeUnits) {
		i = len(byteSizeUnits) - 1
	}

	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%g %s", value, byteSizeUnits[i])
}
