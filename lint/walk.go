// Copyright © 2024 The ELPS authors

package lint

import (
	"strconv"
	"strings"

	"github.com/luthersystems/pycheck/pyast"
)

// Inspect calls fn for every node of the module in source order.
func Inspect(mod *pyast.Module, fn func(node pyast.Node)) {
	if mod == nil {
		return
	}
	for _, s := range mod.Body {
		pyast.Inspect(s, func(n pyast.Node) bool {
			fn(n)
			return true
		})
	}
}

// IsZeroLiteral reports whether e is an int or float literal whose value is
// zero. Complex literals and False are not considered.
func IsZeroLiteral(e pyast.Expr) bool {
	c, ok := e.(*pyast.Constant)
	if !ok {
		return false
	}
	raw := strings.ToLower(strings.ReplaceAll(c.Value, "_", ""))
	switch c.Kind {
	case pyast.ConstInt:
		for _, prefix := range []string{"0x", "0o", "0b"} {
			raw = strings.TrimPrefix(raw, prefix)
		}
		return raw != "" && strings.Trim(raw, "0") == ""
	case pyast.ConstFloat:
		f, err := strconv.ParseFloat(raw, 64)
		return err == nil && f == 0
	default:
		return false
	}
}

// IsIntLiteral reports whether e is an integer literal. Booleans are not.
func IsIntLiteral(e pyast.Expr) bool {
	c, ok := e.(*pyast.Constant)
	return ok && c.Kind == pyast.ConstInt
}
