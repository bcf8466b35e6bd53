package backend

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// frameInfo collects the four frame-size inputs of spec.md §4.5.1.
type frameInfo struct {
	v         int // count of non-unit (non-void) instructions
	s         int // max outgoing stack-argument slots beyond 8
	hasCall   int // 1 if the body contains any call
	allocBytes int // total bytes reserved by alloc instructions
}

func analyzeFunc(f *ir.Func) frameInfo {
	var info frameInfo
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if v, ok := inst.(interface{ Type() types.Type }); ok {
				if _, isVoid := v.Type().(*types.VoidType); !isVoid {
					info.v++
				}
			}
			switch x := inst.(type) {
			case *ir.InstAlloca:
				info.allocBytes += sizeOfType(x.ElemType)
			case *ir.InstCall:
				info.hasCall = 1
				if extra := len(x.Args) - 8; extra > info.s {
					info.s = extra
				}
			}
		}
	}
	return info
}

// frameBytes computes ceil((v+s+has_call)*4 + A, 16), spec.md §4.5.1.
func frameBytes(info frameInfo) int {
	raw := (info.v+info.s+info.hasCall)*4 + info.allocBytes
	return ceilTo16(raw)
}

func ceilTo16(n int) int { return (n + 15) / 16 * 16 }
