package util

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable 16 hex digit hash of a set of IDs. Order and
// duplicates do not matter.
func Fingerprint(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	d := xxhash.New()
	prev := ""
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		_, _ = d.WriteString(id)
		_, _ = d.WriteString("\n")
		prev = id
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
