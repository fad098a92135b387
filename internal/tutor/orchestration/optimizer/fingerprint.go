package optimizer

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes a context map independent of key order. Values are
// rendered with %v so only scalar-like values give stable results.
func Fingerprint(ctx map[string]any) uint64 {
	d := xxhash.New()
	if len(ctx) == 0 {
		return d.Sum64()
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(fmt.Sprint(ctx[k]))
		_, _ = d.WriteString(";")
	}
	return d.Sum64()
}
