package frontend

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// newBlock opens a fresh basic block in the current function, named
// per spec.md §4.2's label families (then_k, else_k, while_entry_k,
// short_true_k, …) — cosmetic once the graph is built, but matches the
// original's naming for readability of -koopa output.
func (l *Lowering) newBlock(family string, id int) *ir.Block {
	return l.sess.CurFunc.NewBlock(nameOf(family, id))
}

func nameOf(family string, id int) string {
	return fmt.Sprintf("%s_%d", family, id)
}
