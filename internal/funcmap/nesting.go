package funcmap

import "fmt"

// nestingChecker verifies that descriptors fed to it in start order are
// properly nested. open holds the chain of intervals enclosing the last
// descriptor, outermost first.
type nestingChecker struct {
	open []FunctionDesc
}

func (n *nestingChecker) add(d FunctionDesc) error {
	for len(n.open) > 0 {
		top := n.open[len(n.open)-1]
		if comparePos(top.EndLine, top.EndColumn, d.StartLine, d.StartColumn) > 0 {
			break
		}
		n.open = n.open[:len(n.open)-1]
	}
	if len(n.open) > 0 {
		top := n.open[len(n.open)-1]
		if !top.Encloses(d) {
			return fmt.Errorf("%w: %s partially overlaps %s", ErrNesting, d, top)
		}
	}
	n.open = append(n.open, d)
	return nil
}

// checkNesting reports the first partial overlap in descs, which must already
// be sorted by start position.
func checkNesting(descs []FunctionDesc) error {
	var n nestingChecker
	for _, d := range descs {
		if err := n.add(d); err != nil {
			return err
		}
	}
	return nil
}
