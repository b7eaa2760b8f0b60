// Copyright © 2024 The ELPS authors

package complexity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pycheck/parser"
)

func estimate(t *testing.T, source string) *Profile {
	t.Helper()
	mod, err := parser.ParseString(source, "test.py")
	require.NoError(t, err)
	p := Estimate(mod)
	require.NotNil(t, p)
	return p
}

func TestEstimate_LoopDepth(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		depth int
		class Class
		time  string
	}{
		{"no loops", "x = 1\n", 0, Linear, TimeLinear},
		{"single loop", "for i in range(3):\n    pass\n", 1, Linear, TimeLinear},
		{"double loop", "for i in a:\n    for j in b:\n        pass\n", 2, Quadratic, TimeQuadratic},
		{"while in for", "for i in a:\n    while i:\n        i -= 1\n", 2, Quadratic, TimeQuadratic},
		{"triple loop", "for i in a:\n    for j in b:\n        for k in c:\n            pass\n", 3, Polynomial, TimePolynomial},
		{"sibling loops", "for i in a:\n    pass\nfor j in b:\n    pass\n", 1, Linear, TimeLinear},
		{"loop in else", "for i in a:\n    pass\nelse:\n    for j in b:\n        pass\n", 2, Quadratic, TimeQuadratic},
		{"comprehension is not a loop", "for i in a:\n    x = [j for j in b]\n", 1, Linear, TimeLinear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := estimate(t, tt.src)
			assert.Equal(t, tt.depth, p.MaxLoopDepth)
			assert.Equal(t, tt.class, p.Class)
			assert.Equal(t, tt.time, p.Time)
			assert.Equal(t, SpaceDefault, p.Space)
			assert.False(t, p.Recursive)
		})
	}
}

func TestEstimate_DepthResetsPerFunction(t *testing.T) {
	p := estimate(t, `for i in a:
    def helper():
        for j in b:
            pass
`)
	assert.Equal(t, 1, p.MaxLoopDepth)
	assert.Equal(t, Linear, p.Class)
}

func TestEstimate_DepthRestoredAfterFunction(t *testing.T) {
	p := estimate(t, `for i in a:
    def helper():
        pass
    for j in b:
        pass
`)
	assert.Equal(t, 2, p.MaxLoopDepth)
}

func TestEstimate_Recursion(t *testing.T) {
	p := estimate(t, `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
`)
	assert.True(t, p.Recursive)
	assert.Equal(t, Recursive, p.Class)
	assert.Equal(t, TimeRecursive, p.Time)
	assert.Equal(t, SpaceRecursive, p.Space)
	assert.Equal(t, []string{"fib"}, p.RecursiveFuncs)
}

func TestEstimate_RecursionDominatesLoops(t *testing.T) {
	p := estimate(t, `for i in a:
    for j in b:
        for k in c:
            pass
def walk(node):
    walk(node.left)
`)
	assert.Equal(t, 3, p.MaxLoopDepth)
	assert.Equal(t, Recursive, p.Class)
	assert.Equal(t, TimeRecursive, p.Time)
}

func TestEstimate_RecursionThroughNestedFunction(t *testing.T) {
	p := estimate(t, `def outer(n):
    def inner():
        return outer(n - 1)
    return inner()
`)
	assert.Equal(t, []string{"outer"}, p.RecursiveFuncs)
}

func TestEstimate_RecursionOutsideBody(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"default", "def f(x=f()):\n    return x\n"},
		{"decorator", "@f\ndef f():\n    pass\n"},
		{"annotation", "def f(x: f()):\n    pass\n"},
		{"return annotation", "def f() -> f():\n    pass\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := estimate(t, tt.src)
			assert.Equal(t, []string{"f"}, p.RecursiveFuncs)
		})
	}
}

func TestEstimate_LoopsInsideMatch(t *testing.T) {
	p := estimate(t, `match cmd:
    case "scan":
        for row in rows:
            for cell in row:
                pass
    case _:
        pass
`)
	assert.Equal(t, 2, p.MaxLoopDepth)
	assert.Equal(t, Quadratic, p.Class)
}

func TestEstimate_RecursionInsideMatch(t *testing.T) {
	p := estimate(t, `def size(node):
    match node:
        case Leaf():
            return 1
        case Branch(left=l, right=r):
            return size(l) + size(r)
`)
	assert.Equal(t, []string{"size"}, p.RecursiveFuncs)
}

func TestEstimate_MethodCallIsNotRecursion(t *testing.T) {
	p := estimate(t, `class Tree:
    def size(self):
        return self.size()
def count(x):
    return other.count(x)
`)
	assert.False(t, p.Recursive)
	assert.Equal(t, Linear, p.Class)
}

func TestEstimate_Empty(t *testing.T) {
	p := Estimate(nil)
	assert.Equal(t, Linear, p.Class)
	assert.Equal(t, TimeLinear, p.Time)
	assert.Equal(t, 0, p.MaxLoopDepth)
}

func TestProfile_JSON(t *testing.T) {
	p := estimate(t, "for i in a:\n    for j in b:\n        pass\n")
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"time": "Approximately O(n^2)",
		"space": "O(1) to O(n) typical for this file",
		"class": "quadratic",
		"max_loop_depth": 2,
		"recursion": false
	}`, string(data))

	var back Profile
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *p, back)
}

func TestClass_UnmarshalUnknown(t *testing.T) {
	var c Class
	assert.Error(t, json.Unmarshal([]byte(`"cubic"`), &c))
}
