package builtins

// keccakRC holds the 24 iota round constants of Keccak-f[1600].
var keccakRC = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088, 0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// keccakRho holds the rho rotation offsets, indexed by lane (x + 5y).
var keccakRho = [25]uint{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

func rotl64(v uint64, n uint) uint64 {
	return v<<n | v>>(64-n)
}

// keccakF1600 applies the full 24-round Keccak-f[1600] permutation to a
// 25-lane state in place. Lanes are indexed x + 5y with little-endian byte
// order, matching FIPS 202.
func keccakF1600(state *[25]uint64) {
	var c [5]uint64
	var d [5]uint64
	var b [25]uint64

	for round := 0; round < 24; round++ {
		// theta
		for x := 0; x < 5; x++ {
			c[x] = state[x] ^ state[x+5] ^ state[x+10] ^ state[x+15] ^ state[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
		}
		for i := 0; i < 25; i++ {
			state[i] ^= d[i%5]
		}

		// rho and pi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				b[y+5*((2*x+3*y)%5)] = rotl64(state[x+5*y], keccakRho[x+5*y])
			}
		}

		// chi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				state[x+5*y] = b[x+5*y] ^ (^b[(x+1)%5+5*y] & b[(x+2)%5+5*y])
			}
		}

		// iota
		state[0] ^= keccakRC[round]
	}
}
