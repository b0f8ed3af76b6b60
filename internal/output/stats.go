package output

import (
	"bytes"
	"os"
	"path/filepath"
)

// targetStats counts scanned targets per file extension. Extensionless
// files land under "<none>".
func targetStats(targets []string) map[string]int {
	stats := make(map[string]int)
	for _, t := range targets {
		stats[extKey(t)]++
	}
	return stats
}

// locStats totals lines of code per file extension. Targets that cannot be
// read contribute nothing; reporting the run should not fail because a
// scanned file has since moved.
func locStats(targets []string) map[string]int {
	stats := make(map[string]int)
	for _, t := range targets {
		data, err := os.ReadFile(t)
		if err != nil {
			continue
		}
		lines := bytes.Count(data, []byte("\n"))
		if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
			lines++
		}
		stats[extKey(t)] += lines
	}
	return stats
}

func extKey(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return "<none>"
}
