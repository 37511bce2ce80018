package lite3

import (
	"fmt"
	"io"
)

// DebugPrint dumps raw[:used] as printable-ASCII-or-hex-pair columns,
// grouped in runs of 4/32/64 bytes with an offset counter every 64 bytes.
// It is an opt-in diagnostic that callers invoke directly; it does not
// consult Config.DebugPrint, and nothing in the mutation/lookup path calls it.
func DebugPrint(w io.Writer, raw []byte, used uint32) {
	const hexDigits = "0123456789ABCDEF"
	for i := uint32(0); i < used; i++ {
		c := raw[i]
		if c >= 0x20 && c <= 0x7E {
			fmt.Fprintf(w, "%c ", c)
		} else {
			fmt.Fprintf(w, "%c%c", hexDigits[c>>4], hexDigits[c&0xF])
		}
		n := i + 1
		switch {
		case n%64 == 0:
			fmt.Fprintf(w, "\t%d\n\n", n)
		case n%32 == 0:
			fmt.Fprint(w, "\n")
		case n%4 == 0:
			fmt.Fprint(w, " ")
		}
	}
	fmt.Fprintln(w)
}
