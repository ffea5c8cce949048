package atpg

import (
	"fmt"
	"io"
	"sort"
)

// WriteReport renders res as a plain-text vector report: each vector
// under a numbered header, one "<input> <bit>" line per primary input
// (in name order, for a deterministic report), followed by the running
// coverage after that vector.
func WriteReport(w io.Writer, res *Result) error {
	for i, v := range res.Vectors {
		fmt.Fprintf(w, "--------------- Test Vector #%d ---------------\n", i+1)
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s %s\n", name, v[name])
		}
		fmt.Fprintf(w, "Total Coverage = %g\n", res.CoverageAfterEach[i])
	}
	return nil
}
