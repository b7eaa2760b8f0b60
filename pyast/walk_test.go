// Copyright © 2024 The ELPS authors

package pyast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pycheck/parser"
	"github.com/luthersystems/pycheck/pyast"
)

func TestInspect_SourceOrder(t *testing.T) {
	mod, err := parser.ParseString("a = b\nc(d, e=f)\n", "t.py")
	require.NoError(t, err)

	var names []string
	pyast.Inspect(mod, func(n pyast.Node) bool {
		if name, ok := n.(*pyast.Name); ok {
			names = append(names, name.ID)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d", "f"}, names)
}

func TestInspect_Prune(t *testing.T) {
	mod, err := parser.ParseString("def f():\n    inner\nouter\n", "t.py")
	require.NoError(t, err)

	var names []string
	pyast.Inspect(mod, func(n pyast.Node) bool {
		switch n := n.(type) {
		case *pyast.FunctionDef:
			return false
		case *pyast.Name:
			names = append(names, n.ID)
		}
		return true
	})
	assert.Equal(t, []string{"outer"}, names)
}

func TestWalk_Depth(t *testing.T) {
	mod, err := parser.ParseString("x = (1 + 2)\n", "t.py")
	require.NoError(t, err)

	depths := map[string]int{}
	pyast.Walk(mod, func(n, parent pyast.Node, depth int) {
		switch n.(type) {
		case *pyast.Module:
			assert.Nil(t, parent)
			depths["module"] = depth
		case *pyast.BinOp:
			depths["binop"] = depth
		case *pyast.Constant:
			depths["const"] = depth
		}
	})
	assert.Equal(t, 0, depths["module"])
	assert.Equal(t, 2, depths["binop"])
	assert.Equal(t, 3, depths["const"])
}

func TestOperators(t *testing.T) {
	assert.Equal(t, pyast.FloorDiv, pyast.ParseOperator("//="))
	assert.Equal(t, pyast.Mod, pyast.ParseOperator("%"))
	assert.True(t, pyast.Div.Divides())
	assert.False(t, pyast.Mult.Divides())
	assert.Equal(t, "//", pyast.FloorDiv.String())

	assert.Equal(t, pyast.IsNot, pyast.ParseCmpOp("is not"))
	assert.Equal(t, pyast.NotEq, pyast.ParseCmpOp("<>"))
	assert.Equal(t, "not in", pyast.NotIn.String())
	assert.True(t, pyast.Eq.IsEquality())
	assert.False(t, pyast.Is.IsEquality())
}

func TestSnippet_OutOfRange(t *testing.T) {
	mod := &pyast.Module{Source: []byte("abc")}
	n := &pyast.Name{Span: pyast.Span{Start: pyast.Pos{Offset: 1}, End: pyast.Pos{Offset: 9}}}
	assert.Equal(t, "", mod.Snippet(n))
	n.End.Offset = 3
	assert.Equal(t, "bc", mod.Snippet(n))
}
