package funcmap

// RelativeFunctionDesc is the delta-encoded wire shape of a FunctionDesc.
// It only has meaning relative to the descriptor encoded before it.
type RelativeFunctionDesc struct {
	NameIndex   int
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

func (r RelativeFunctionDesc) values() []int {
	return []int{r.NameIndex, r.StartLine, r.StartColumn, r.EndLine, r.EndColumn}
}

// cursor is the running state threaded through a source's descriptors. It is
// passed by value; every step returns the next cursor.
type cursor struct {
	prev      FunctionDesc
	nameIndex int
}

// relativize returns d as deltas from c and the cursor for the next descriptor.
func (c cursor) relativize(d FunctionDesc, nameIndex int) (RelativeFunctionDesc, cursor) {
	r := RelativeFunctionDesc{
		NameIndex:   nameIndex - c.nameIndex,
		StartLine:   d.StartLine - c.prev.EndLine,
		StartColumn: d.StartColumn - c.prev.StartColumn,
		EndLine:     d.EndLine - d.StartLine,
		EndColumn:   d.EndColumn - c.prev.EndColumn,
	}
	return r, cursor{prev: d, nameIndex: nameIndex}
}

// absolutize inverts relativize. The returned descriptor is not validated.
func (c cursor) absolutize(r RelativeFunctionDesc) (nameIndex int, d FunctionDesc) {
	nameIndex = c.nameIndex + r.NameIndex
	startLine := c.prev.EndLine + r.StartLine
	d = FunctionDesc{
		StartLine:   startLine,
		StartColumn: c.prev.StartColumn + r.StartColumn,
		EndLine:     startLine + r.EndLine,
		EndColumn:   c.prev.EndColumn + r.EndColumn,
	}
	return nameIndex, d
}

func (c cursor) advance(d FunctionDesc, nameIndex int) cursor {
	return cursor{prev: d, nameIndex: nameIndex}
}
