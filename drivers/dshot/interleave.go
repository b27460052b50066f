package dshot

// Interleave packs four 16-bit frames into the two words the four-lane
// program shifts out MSB first, one nibble per bit period. Bit i of the first
// word is bit i/4+8 of frame i%4; the second word holds the low bytes.
func Interleave(frames [4]uint16) [2]uint32 {
	var w [2]uint32
	for i := 0; i < 32; i++ {
		f := uint32(frames[i%4])
		w[0] |= (f >> (i/4 + 8) & 1) << i
		w[1] |= (f >> (i / 4) & 1) << i
	}
	return w
}

// Deinterleave reverses Interleave.
func Deinterleave(w [2]uint32) [4]uint16 {
	var frames [4]uint16
	for i := 0; i < 32; i++ {
		lane := i % 4
		frames[lane] |= uint16(w[0]>>i&1) << (i/4 + 8)
		frames[lane] |= uint16(w[1]>>i&1) << (i / 4)
	}
	return frames
}
