package frontend

import (
	"sysyc/internal/ast"
	"sysyc/internal/diag"
)

// computeStrides returns, for a declared shape dims (outermost
// first), stride[i] = product(dims[i+1:]) — the scalar count spanned
// by one step along dimension i (spec.md §4.4.5).
func computeStrides(dims []int) []int {
	strides := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= dims[i]
	}
	return strides
}

// resolveInit flattens a possibly-irregular brace initializer into a
// buffer of len == productOf(dims), per spec.md §4.4.5's resolution
// algorithm (confirmed against original_source/lv9: ties in the
// stride search prefer the first, i.e. largest, matching divisor — a
// simple descending scan stopping at the first divisor).
func (l *Lowering) resolveInit(init *ast.Init, dims []int) []int {
	total := productOf(dims)
	buf := make([]int, total)
	if init == nil {
		return buf
	}
	cur := 0
	l.fillList(init.List, buf, &cur, dims, computeStrides(dims), total)
	return buf
}

func (l *Lowering) fillList(items []*ast.Init, buf []int, cur *int, dims []int, strides []int, enclosingAlignment int) {
	start := *cur
	for _, item := range items {
		if *cur >= start+enclosingAlignment {
			panic(diag.New(diag.InitializerShape, diag.Pos{}, "initializer has more elements than the declared shape"))
		}
		if !item.IsList() {
			buf[*cur] = l.evalConstExpr(item.Scalar)
			*cur++
			continue
		}
		chosen, chosenIdx := -1, -1
		for i, s := range strides {
			if s < enclosingAlignment && (*cur)%s == 0 && s > chosen {
				chosen, chosenIdx = s, i
			}
		}
		if chosenIdx == -1 {
			panic(diag.New(diag.InitializerShape, diag.Pos{}, "brace initializer does not align to any declared sub-array boundary"))
		}
		l.fillList(item.List, buf, cur, dims[chosenIdx+1:], strides[chosenIdx+1:], chosen)
	}
	for *cur < start+enclosingAlignment {
		buf[*cur] = 0
		*cur++
	}
}

// allZero reports whether every element of buf is zero, used to
// collapse a global aggregate initializer to zeroinit (supplemented
// from original_source per SPEC_FULL §4.7).
func allZero(buf []int) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}
