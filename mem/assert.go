package mem

// Assert panics with msg when cond is false. It exists to give the
// programmer-error paths spec'd across every engine (over-sized block
// allocation, foreign deallocation, reset-with-live-objects) a single,
// consistently worded failure mode instead of scattering ad-hoc panics.
// Release builds are not expected to strip it; the contract only
// promises these paths are undefined, not that they are silent.
func Assert(cond bool, msg string) {
	if !cond {
		panic("mem: " + msg)
	}
}
