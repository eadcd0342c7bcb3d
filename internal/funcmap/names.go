package funcmap

// CombineNames returns existing extended with every function name used by
// the descriptors of sources that are present in sources. Names are appended
// in the order they are first met, walking sources in order. Existing entries
// keep their indices and the result never contains duplicates it did not
// already have.
func CombineNames(existing []string, sources []string, descs map[string][]FunctionDesc) []string {
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	names := make([]string, len(existing), len(existing)+len(descs))
	copy(names, existing)

	visited := make(map[string]bool, len(sources))
	for _, source := range sources {
		if visited[source] {
			continue
		}
		visited[source] = true
		for _, d := range descs[source] {
			if known[d.Name] {
				continue
			}
			known[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}

// nameIndex maps each name to its first index in names.
func nameIndex(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}
