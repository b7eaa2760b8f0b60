// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/pycheck/pyast"

// UnresolvedRef records a name read that could not be resolved.
type UnresolvedRef struct {
	Name string
	Node *pyast.Name
}

// Line returns the 1-based line of the read.
func (r *UnresolvedRef) Line() int {
	return r.Node.Start.Line
}
