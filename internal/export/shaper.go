package export

import "strings"

// Options control how rows are shaped.
type Options struct {
	Format          Format
	IncludeMetadata bool
}

// Shape renders rows as a flat key -> value map, or as a tree split on ".".
// With metadata each leaf becomes {"value": ..., "metadata": ...}.
//
// In nested form a later key whose path runs through an earlier string leaf
// replaces that leaf with an object ("a.b" then "a.b.c" keeps only a.b.c).
// A {value, metadata} leaf is already an object and gains the child instead.
// Rows are applied in order.
func Shape(rows []Row, opts Options) map[string]interface{} {
	out := make(map[string]interface{}, len(rows))
	for _, r := range rows {
		value := leaf(r, opts.IncludeMetadata)
		if opts.Format == FormatNested {
			setNested(out, r.Key, value)
			continue
		}
		out[r.Key] = value
	}
	return out
}

// ShapeByLocale groups rows by locale code and shapes each group.
// The returned codes are in order of first appearance.
func ShapeByLocale(rows []Row, opts Options) (map[string]interface{}, []string) {
	groups, codes := groupByLocale(rows)
	out := make(map[string]interface{}, len(groups))
	for _, code := range codes {
		out[code] = Shape(groups[code], opts)
	}
	return out, codes
}

// ShapeByKeys groups rows by locale then key, keeping the first row of each
// (locale, key) pair, and shapes each locale group. It returns the number of
// rows kept.
func ShapeByKeys(rows []Row, opts Options) (map[string]interface{}, int) {
	seen := make(map[string]map[string]struct{})
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		keys, ok := seen[r.LocaleCode]
		if !ok {
			keys = make(map[string]struct{})
			seen[r.LocaleCode] = keys
		}
		if _, dup := keys[r.Key]; dup {
			continue
		}
		keys[r.Key] = struct{}{}
		kept = append(kept, r)
	}
	shaped, _ := ShapeByLocale(kept, opts)
	return shaped, len(kept)
}

// Flatten is the inverse of the nested shape for value-only leaves.
func Flatten(tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	flattenInto(out, "", tree)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, node map[string]interface{}) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]interface{}); ok {
			flattenInto(out, path, child)
			continue
		}
		out[path] = v
	}
}

func leaf(r Row, includeMetadata bool) interface{} {
	if !includeMetadata {
		return r.Value
	}
	var metadata interface{}
	if len(r.Metadata) > 0 {
		metadata = r.Metadata
	}
	return map[string]interface{}{
		"value":    r.Value,
		"metadata": metadata,
	}
}

func setNested(tree map[string]interface{}, key string, value interface{}) {
	segments := strings.Split(key, ".")
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func groupByLocale(rows []Row) (map[string][]Row, []string) {
	groups := make(map[string][]Row)
	var codes []string
	for _, r := range rows {
		if _, ok := groups[r.LocaleCode]; !ok {
			codes = append(codes, r.LocaleCode)
		}
		groups[r.LocaleCode] = append(groups[r.LocaleCode], r)
	}
	return groups, codes
}
