// Copyright © 2024 The ELPS authors

package parser

import (
	"bytes"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// findSyntaxError returns the first error or missing node of the tree in
// document order, or nil if the tree is clean.
func findSyntaxError(root *tree_sitter.Node, src []byte) *SyntaxError {
	if root == nil {
		return &SyntaxError{Msg: "invalid syntax"}
	}
	bad, msg := firstBadNode(root)
	if bad == nil {
		return nil
	}
	pos := bad.StartPosition()
	line := int(pos.Row) + 1
	return &SyntaxError{
		Line: line,
		Col:  int(pos.Column) + 1,
		Msg:  msg,
		Text: string(bytes.TrimSpace(sourceLine(src, line))),
	}
}

// firstBadNode returns the node to report and its message.
func firstBadNode(n *tree_sitter.Node) (*tree_sitter.Node, string) {
	if n.IsError() || n.IsMissing() {
		return n, syntaxMessage(n)
	}
	if bad, msg := legacy(n); bad != nil {
		return bad, msg
	}
	if !n.HasError() {
		return containsLegacy(n)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if bad, msg := firstBadNode(child); bad != nil {
			return bad, msg
		}
	}
	return nil, ""
}

// containsLegacy finds Python 2 forms that the grammar still accepts.
func containsLegacy(n *tree_sitter.Node) (*tree_sitter.Node, string) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if bad, msg := legacy(child); bad != nil {
			return bad, msg
		}
		if bad, msg := containsLegacy(child); bad != nil {
			return bad, msg
		}
	}
	return nil, ""
}

// legacy reports Python 2 syntax rooted at n: print and exec statements,
// the "<>" operator and "except E, name".
func legacy(n *tree_sitter.Node) (*tree_sitter.Node, string) {
	switch n.Kind() {
	case "print_statement":
		return n, "Missing parentheses in call to 'print'. Did you mean print(...)?"
	case "exec_statement":
		return n, "Missing parentheses in call to 'exec'"
	case "comparison_operator":
		for _, kid := range all(n) {
			if !kid.IsNamed() && kid.Kind() == "<>" {
				return kid, "invalid syntax"
			}
		}
	case "except_clause":
		if hasToken(n, ",") {
			if kids := named(n); len(kids) > 0 {
				return kids[0], "multiple exception types must be parenthesized"
			}
			return n, "multiple exception types must be parenthesized"
		}
	}
	return nil, ""
}

func syntaxMessage(n *tree_sitter.Node) string {
	if n.IsMissing() {
		return fmt.Sprintf("expected '%s'", n.Kind())
	}
	return "invalid syntax"
}

// sourceLine returns the 1-based line of src without its newline.
func sourceLine(src []byte, line int) []byte {
	for cur := 1; ; cur++ {
		end := bytes.IndexByte(src, '\n')
		if cur == line {
			if end < 0 {
				return src
			}
			return src[:end]
		}
		if end < 0 {
			return nil
		}
		src = src[end+1:]
	}
}
