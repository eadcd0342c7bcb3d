package funcmap

// FindInnermost returns the name of the innermost descriptor containing the
// point. descs must be sorted by start position and properly nested; a later
// descriptor that contains the point is then nested inside any earlier one
// that does, so the backward scan stops at the first match.
func FindInnermost(line, column int, descs []FunctionDesc) (string, bool) {
	for i := len(descs) - 1; i >= 0; i-- {
		if descs[i].Contains(line, column) {
			return descs[i].Name, true
		}
	}
	return "", false
}
