package gpu

// RoundUp returns the smallest multiple of quantization that is >= desired.
// Use it to derive a valid global work size from a workgroup size:
//
//	global := gpu.RoundUp(local, n)
//
// A quantization <= 0 returns desired unchanged.
func RoundUp(quantization, desired int) int {
	if quantization <= 0 {
		return desired
	}
	rem := desired % quantization
	if rem == 0 {
		return desired
	}
	return desired + quantization - rem
}
