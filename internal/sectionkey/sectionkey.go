// Package sectionkey parses and orders the stable section identifiers
// used throughout the advice document tree ("M1", "M3_S2", "M4_S4_SS1").
// Ordering is a pure function of the key string: numeric by component,
// parents before their own children.
package sectionkey

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	mainRe   = regexp.MustCompile(`^M(\d+)`)
	subRe    = regexp.MustCompile(`_S(\d+)`)
	subsubRe = regexp.MustCompile(`_SS(\d+)`)
)

// Tuple is the ordered numeric decomposition of a section key. Missing
// components are zero, so "M3" parses to {3, 0, 0, depth 1} and
// "M3_S2" to {3, 2, 0, depth 2}.
type Tuple struct {
	Main   int
	Sub    int
	SubSub int
	Depth  int
}

// Parse decomposes a key into its numeric tuple. Unparseable components
// stay zero; the function is total so ordering stays total.
func Parse(key string) Tuple {
	var t Tuple
	if m := mainRe.FindStringSubmatch(key); m != nil {
		t.Main, _ = strconv.Atoi(m[1])
		t.Depth = 1
	}
	if m := subsubRe.FindStringSubmatch(key); m != nil {
		t.SubSub, _ = strconv.Atoi(m[1])
		t.Depth = 3
		// The _S match below would otherwise pick up the "_SS" prefix,
		// so strip the sub-subsection suffix before looking for it.
		key = subsubRe.ReplaceAllString(key, "")
	}
	if m := subRe.FindStringSubmatch(key); m != nil {
		t.Sub, _ = strconv.Atoi(m[1])
		if t.Depth < 2 {
			t.Depth = 2
		}
	}
	return t
}

// Less compares two keys by their numeric tuples, component by
// component, with ties broken by depth so a parent key sorts before its
// own children. Equal keys compare false both ways, keeping the order
// total and stable.
func Less(a, b string) bool {
	ta, tb := Parse(a), Parse(b)
	if ta.Main != tb.Main {
		return ta.Main < tb.Main
	}
	if ta.Sub != tb.Sub {
		return ta.Sub < tb.Sub
	}
	if ta.SubSub != tb.SubSub {
		return ta.SubSub < tb.SubSub
	}
	if ta.Depth != tb.Depth {
		return ta.Depth < tb.Depth
	}
	// Identical tuples, fall back to the raw string for stability.
	return a < b
}

// Sort deduplicates keys (keeping the first occurrence) and returns
// them in document order.
func Sort(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
