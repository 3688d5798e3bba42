package trap

import (
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// DisassembleFault decodes a faulting instruction word into its
// mnemonic, diagnostic context beyond the bare fault VA (spec.md 4.6,
// 7: "log fault VA and exit"). Handle's fault log lines do not call it;
// they carry the VA only.
func DisassembleFault(instrBytes []byte) string {
	inst, err := riscv64asm.Decode(instrBytes)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	return riscv64asm.GoSyntax(inst, 0, nil, nil)
}
