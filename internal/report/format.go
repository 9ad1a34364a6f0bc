// Package report renders a job's final per-peer summary.
package report

import "fmt"

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// ByteCount formats n bytes as a human-readable string using binary
// (1024-based) units, e.g. 1536 -> "1.50 KiB".
func ByteCount(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	f := float64(n)
	unit := 0
	for f >= 1024 && unit < len(byteUnits)-1 {
		f /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", f, byteUnits[unit])
}
