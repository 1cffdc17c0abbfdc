package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteGraphviz writes the edges of f as a DOT graph with one cluster per run of
// edges sharing the same A, which is one cluster per profile for a sorted dump.
func WriteGraphviz(w io.Writer, f *File) error {
	names := make(map[int]string, len(f.Users))
	for _, u := range f.Users {
		names[u.ID] = u.Name
	}
	name := func(id int) string {
		if n, ok := names[id]; ok {
			return n
		}
		return strconv.Itoa(id)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph contacts {")

	open := false
	cluster := 0
	for _, e := range f.Edges {
		if !open || cluster != e.A {
			if open {
				fmt.Fprintln(bw, "\t}")
			}
			cluster = e.A
			open = true
			fmt.Fprintf(bw, "\tsubgraph cluster_%d {\n", cluster)
		}
		fmt.Fprintf(bw, "\t\t%q -- %q\n", name(e.A), name(e.B))
	}
	if open {
		fmt.Fprintln(bw, "\t}")
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
