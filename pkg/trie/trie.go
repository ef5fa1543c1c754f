// Package trie provides a prefix trie over dotted namespaces, used to
// resolve a fully qualified class path to the most specific declared
// module.
package trie

import "strings"

type node struct {
	children map[string]*node
	// terminal is true when a namespace declaration ends at this node.
	terminal   bool
	moduleName string
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// PackageMatcher maps dotted namespaces to module names via
// longest-prefix matching. Build it once, then it is read-only and safe
// for concurrent lookups.
type PackageMatcher struct {
	root *node
	size int
}

// NewPackageMatcher creates an empty matcher.
func NewPackageMatcher() *PackageMatcher {
	return &PackageMatcher{root: newNode()}
}

// Declaration binds a dotted namespace to a module name.
type Declaration struct {
	Namespace  string
	ModuleName string
}

// BuildPackageMatcher creates a matcher from a list of declarations.
func BuildPackageMatcher(decls []Declaration) *PackageMatcher {
	m := NewPackageMatcher()
	for _, d := range decls {
		m.Insert(d.Namespace, d.ModuleName)
	}
	return m
}

// Insert declares a namespace terminus with its module name. A later
// insert for the same namespace overwrites the module name.
func (m *PackageMatcher) Insert(namespace, moduleName string) {
	if namespace == "" {
		return
	}
	cur := m.root
	for _, seg := range strings.Split(namespace, ".") {
		next, ok := cur.children[seg]
		if !ok {
			next = newNode()
			cur.children[seg] = next
		}
		cur = next
	}
	if !cur.terminal {
		m.size++
	}
	cur.terminal = true
	cur.moduleName = moduleName
}

// FindMostSpecificModule walks the trie segment by segment and returns
// the module name of the last declared namespace terminus passed on the
// way. This is a longest-prefix match: a class path several segments
// longer than a declared namespace still resolves to that namespace's
// module. The second return is false when no terminus was passed.
func (m *PackageMatcher) FindMostSpecificModule(packageName string) (string, bool) {
	if packageName == "" {
		return "", false
	}
	cur := m.root
	module := ""
	found := false
	for _, seg := range strings.Split(packageName, ".") {
		next, ok := cur.children[seg]
		if !ok {
			break
		}
		cur = next
		if cur.terminal {
			module = cur.moduleName
			found = true
		}
	}
	return module, found
}

// Len returns the number of declared namespaces.
func (m *PackageMatcher) Len() int {
	return m.size
}
