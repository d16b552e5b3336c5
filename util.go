package huffmantree

import (
	mathbits "math/bits"
)

func log2int(x int64) int {
	if x <= 0 {
		x = 1
	}
	return 64 - mathbits.LeadingZeros64(uint64(x))
}
