// Copyright © 2024 The ELPS authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pycheck/parser"
)

// parseAndAnalyze is a test helper that parses source and runs analysis.
func parseAndAnalyze(t *testing.T, source string) *Result {
	t.Helper()
	mod, err := parser.ParseString(source, "test.py")
	require.NoError(t, err)
	return Analyze(mod, nil)
}

func unresolvedNames(r *Result) []string {
	var names []string
	for _, u := range r.Unresolved {
		names = append(names, u.Name)
	}
	return names
}

func assertResolved(t *testing.T, source string) {
	t.Helper()
	r := parseAndAnalyze(t, source)
	assert.Empty(t, unresolvedNames(r), "source:\n%s", source)
}

// --- Scope tests ---

func TestScope_Define_Lookup(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeFunction, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	assert.NotNil(t, child.Lookup("x"))
	assert.NotNil(t, child.Lookup("y"))

	assert.NotNil(t, parent.Lookup("x"))
	assert.Nil(t, parent.Lookup("y"))
}

func TestScope_LookupLocal(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeFunction, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	assert.Nil(t, child.LookupLocal("x"))
	assert.NotNil(t, child.LookupLocal("y"))
}

func TestScope_Shadowing(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := parent.Push(ScopeFunction, nil)

	parentSym := &Symbol{Name: "x", Kind: SymVariable}
	childSym := &Symbol{Name: "x", Kind: SymParameter}
	parent.Define(parentSym)
	child.Define(childSym)

	assert.Same(t, childSym, child.Lookup("x"))
	assert.Same(t, parentSym, parent.Lookup("x"))
}

func TestScope_PushPop(t *testing.T) {
	root := NewScope(ScopeModule, nil, nil)
	assert.Equal(t, 1, root.Depth())

	inner := root.Push(ScopeFunction, nil).Push(ScopeComprehension, nil)
	assert.Equal(t, 3, inner.Depth())
	assert.Equal(t, ScopeFunction, inner.Pop().Kind)

	// Popping the module frame is a no-op.
	assert.Same(t, root, root.Pop())
	assert.Same(t, root, root.Pop().Pop())
}

func TestScope_DefineIdempotent(t *testing.T) {
	s := NewScope(ScopeModule, nil, nil)
	first := &Symbol{Name: "x", Kind: SymImport}
	s.Define(first)
	s.Define(&Symbol{Name: "x", Kind: SymVariable})
	s.DefineName("x")
	assert.Same(t, first, s.LookupLocal("x"))
	assert.Len(t, s.Symbols, 1)
}

func TestScope_Visible(t *testing.T) {
	root := NewScope(ScopeModule, nil, nil)
	root.DefineName("_private")
	child := root.Push(ScopeLambda, nil)
	assert.True(t, child.Visible("_private"))
	assert.False(t, child.Visible("missing"))
	assert.Equal(t, "lambda", child.Kind.String())
}

// --- Builtins ---

func TestBuiltins(t *testing.T) {
	for _, name := range []string{"print", "len", "range", "ValueError", "__name__", "__file__", "None", "True", "False"} {
		assert.True(t, IsBuiltin(name), name)
	}
	assert.False(t, IsBuiltin("numpy"))
	assert.False(t, IsBuiltin("# Predeclared"))
	names := BuiltinNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "ExceptionGroup")
}

// --- Analyze ---

func TestAnalyze_UnresolvedRead(t *testing.T) {
	r := parseAndAnalyze(t, "print(undefined_var)\n")
	require.Len(t, r.Unresolved, 1)
	u := r.Unresolved[0]
	assert.Equal(t, "undefined_var", u.Name)
	assert.Equal(t, 1, u.Line())
	assert.Equal(t, 7, u.Node.Start.Col)
}

func TestAnalyze_DedupPerLine(t *testing.T) {
	r := parseAndAnalyze(t, "y = z + z * z\nw = z\n")
	assert.Equal(t, []string{"z", "z"}, unresolvedNames(r))
	assert.Equal(t, 1, r.Unresolved[0].Line())
	assert.Equal(t, 2, r.Unresolved[1].Line())
}

func TestAnalyze_Shadowing(t *testing.T) {
	assertResolved(t, `x = 1
def f(x):
    return x
def g():
    x = 2
    return x
`)
}

func TestAnalyze_Assignments(t *testing.T) {
	assertResolved(t, `a, (b, [c, *d]) = 1, (2, [3, 4])
e: int = a
f: str
f += "x"
print(a, b, c, d, e, f)
`)
}

func TestAnalyze_TargetBoundBeforeValue(t *testing.T) {
	// The target is registered before the value is walked.
	assertResolved(t, "counter = counter + 1\n")
}

func TestAnalyze_AttributeTargetReads(t *testing.T) {
	r := parseAndAnalyze(t, "obj.attr = 1\nitems[key] = 2\n")
	assert.Equal(t, []string{"obj", "items", "key"}, unresolvedNames(r))
}

func TestAnalyze_UseBeforeDefinition(t *testing.T) {
	r := parseAndAnalyze(t, "print(later)\nlater = 1\nprint(later)\n")
	require.Len(t, r.Unresolved, 1)
	assert.Equal(t, 1, r.Unresolved[0].Line())
}

func TestAnalyze_Imports(t *testing.T) {
	assertResolved(t, `import os.path
import numpy as np
from collections import OrderedDict, defaultdict as dd
os.path.join("a")
np.zeros(1)
OrderedDict()
dd(list)
`)
}

func TestAnalyze_WildcardImport(t *testing.T) {
	r := parseAndAnalyze(t, "from math import *\nprint(sqrt(2))\n")
	assert.Equal(t, []string{"sqrt"}, unresolvedNames(r))
}

func TestAnalyze_FunctionScope(t *testing.T) {
	r := parseAndAnalyze(t, `def f(a, *args, b=1, **kw):
    local = a + b
    return local, args, kw
print(local)
`)
	assert.Equal(t, []string{"local"}, unresolvedNames(r))
	assert.Equal(t, 4, r.Unresolved[0].Line())
}

func TestAnalyze_Recursion(t *testing.T) {
	assertResolved(t, `def fact(n):
    return 1 if n == 0 else n * fact(n - 1)
`)
}

func TestAnalyze_DecoratorsAndDefaultsReadInEnclosingScope(t *testing.T) {
	r := parseAndAnalyze(t, `@deco
def f(x=x_default, y: Hint = 1) -> Ret:
    return x
`)
	assert.Equal(t, []string{"deco", "x_default", "Hint", "Ret"}, unresolvedNames(r))
}

func TestAnalyze_ParamsNotVisibleInDefaults(t *testing.T) {
	r := parseAndAnalyze(t, "def f(a, b=a):\n    pass\n")
	assert.Equal(t, []string{"a"}, unresolvedNames(r))
}

func TestAnalyze_ClassDef(t *testing.T) {
	r := parseAndAnalyze(t, `class Base:
    pass
class Child(Base, metaclass=Meta):
    attr = 1
    def method(self):
        return self.attr
Child()
`)
	assert.Equal(t, []string{"Meta"}, unresolvedNames(r))
}

func TestAnalyze_ForAndWith(t *testing.T) {
	assertResolved(t, `for i, (j, k) in enumerate(pairs := [(1, 2)]):
    print(i, j, k)
with open("f") as fh, open("g") as gh:
    print(fh, gh)
print(pairs)
`)
}

func TestAnalyze_LoopIterReadBeforeTarget(t *testing.T) {
	r := parseAndAnalyze(t, "for x in x:\n    pass\n")
	assert.Equal(t, []string{"x"}, unresolvedNames(r))
}

func TestAnalyze_ExceptHandler(t *testing.T) {
	r := parseAndAnalyze(t, `try:
    risky()
except (KeyError, MyError) as err:
    print(err)
print(err)
`)
	assert.Equal(t, []string{"risky", "MyError", "err"}, unresolvedNames(r))
	assert.Equal(t, 5, r.Unresolved[2].Line())
}

func TestAnalyze_Comprehensions(t *testing.T) {
	r := parseAndAnalyze(t, `data = [1, 2]
squares = [x * x for x in data if x]
pairs = {k: v for k, v in zip(data, data)}
nested = [y for row in data for y in row]
gen = sum(z for z in data)
print(x)
`)
	assert.Equal(t, []string{"x"}, unresolvedNames(r))
	assert.Equal(t, 6, r.Unresolved[0].Line())
}

func TestAnalyze_ComprehensionFirstIterInEnclosingScope(t *testing.T) {
	r := parseAndAnalyze(t, "[x for x in x]\n")
	assert.Equal(t, []string{"x"}, unresolvedNames(r))
}

func TestAnalyze_Lambda(t *testing.T) {
	r := parseAndAnalyze(t, "f = lambda a, b=dflt: a + b + c\n")
	assert.Equal(t, []string{"dflt", "c"}, unresolvedNames(r))
}

func TestAnalyze_WalrusInComprehension(t *testing.T) {
	assertResolved(t, "data = [1]\n[(last := v) for v in data]\nprint(last)\n")
}

func TestAnalyze_GlobalNonlocal(t *testing.T) {
	assertResolved(t, `def outer():
    nonlocal_target = 0
    def inner():
        global configured
        nonlocal nonlocal_target
        return configured, nonlocal_target
    return inner
`)
}

func TestAnalyze_Delete(t *testing.T) {
	r := parseAndAnalyze(t, "del gone\ndel cache[key]\n")
	assert.Equal(t, []string{"cache", "key"}, unresolvedNames(r))
}

func TestAnalyze_FString(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"replacement field", "name = 'x'\nprint(f\"{name} {missing}\")\n", []string{"missing"}},
		{"format spec field", "print(f\"{zz} {yy!r:>{ww}}\")\n", []string{"zz", "yy", "ww"}},
		{"bound format spec", "width = 4\nvalue = 1\nprint(f\"{value:>{width}}\")\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unresolvedNames(parseAndAnalyze(t, tt.src)))
		})
	}
}

func TestAnalyze_Match(t *testing.T) {
	r := parseAndAnalyze(t, `match x:
    case 1:
        print(y / 0)
`)
	assert.Equal(t, []string{"x", "y"}, unresolvedNames(r))
}

func TestAnalyze_MatchCaptures(t *testing.T) {
	assertResolved(t, `import enum
class Point:
    pass
Color = enum.Enum("Color", "RED")
command = ["go", "north"]
match command:
    case ["go", direction] if direction:
        print(direction)
    case Point(x=px, y=py) as origin:
        print(px, py, origin)
    case [first, *others]:
        print(first, others)
    case {"key": found, **extra}:
        print(found, extra)
    case Color.RED | None:
        pass
    case _:
        pass
print(direction, others)
`)
}

func TestAnalyze_MatchValuePatternsAreReads(t *testing.T) {
	r := parseAndAnalyze(t, `match status:
    case Http.OK:
        pass
    case Missing():
        pass
    case {Keys.NAME: name}:
        print(name)
    case _:
        print(_)
`)
	assert.Equal(t, []string{"status", "Http", "Missing", "Keys", "_"}, unresolvedNames(r))
}

func TestAnalyze_MatchGuardSeesCaptures(t *testing.T) {
	r := parseAndAnalyze(t, `match 3:
    case n if n > limit:
        pass
`)
	assert.Equal(t, []string{"limit"}, unresolvedNames(r))
}

func TestAnalyze_TypeParams(t *testing.T) {
	assertResolved(t, `type Alias = int
type Pair[T] = tuple[T, T]
type Tree = list[Tree]
def first[T: (int, str)](items: list[T]) -> T:
    return items[0]
class Box[T, *Ts, **P](list[T]):
    def get(self) -> T:
        pass
print(Alias, Pair, Tree, first, Box)
`)
}

func TestAnalyze_TypeParamsStayLocal(t *testing.T) {
	r := parseAndAnalyze(t, `def first[T](items: list[T]) -> T:
    pass
def f(x=T):
    pass
x: Unknown = 1
`)
	assert.Equal(t, []string{"T", "Unknown"}, unresolvedNames(r))
	assert.NotContains(t, r.Globals(), "T")
}

func TestAnalyze_ExtraGlobals(t *testing.T) {
	mod, err := parser.ParseString("display(df)\n", "nb.py")
	require.NoError(t, err)
	r := Analyze(mod, &Config{ExtraGlobals: []string{"display"}})
	assert.Equal(t, []string{"df"}, unresolvedNames(r))
	sym := r.RootScope.LookupLocal("display")
	require.NotNil(t, sym)
	assert.Equal(t, SymExternal, sym.Kind)
}

func TestAnalyze_SymbolsAndGlobals(t *testing.T) {
	r := parseAndAnalyze(t, "import os\ndef f(p):\n    q = p\nclass C:\n    pass\n")
	assert.Equal(t, []string{"C", "f", "os"}, r.Globals())

	kinds := map[string]SymbolKind{}
	for _, sym := range r.Symbols {
		kinds[sym.Name] = sym.Kind
	}
	assert.Equal(t, SymImport, kinds["os"])
	assert.Equal(t, SymFunction, kinds["f"])
	assert.Equal(t, SymParameter, kinds["p"])
	assert.Equal(t, SymVariable, kinds["q"])
	assert.Equal(t, SymClass, kinds["C"])
}

func TestAnalyze_NilModule(t *testing.T) {
	r := Analyze(nil, nil)
	require.NotNil(t, r)
	assert.Empty(t, r.Unresolved)
	assert.Empty(t, r.Globals())
}

func TestAnalyze_Deterministic(t *testing.T) {
	src := "print(a, b)\nfor i in c:\n    d(i)\n"
	first := unresolvedNames(parseAndAnalyze(t, src))
	second := unresolvedNames(parseAndAnalyze(t, src))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "b", "c", "d"}, first)
}
