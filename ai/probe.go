package ai

// MemoryProbe reports the free memory of the inference accelerator, in
// bytes, and whether an accelerator is present at all. Batch sizing uses it
// as a pure heuristic: results must be identical for any reported value.
type MemoryProbe func() (freeBytes int64, accelerated bool)

// DefaultMemoryProbe reports no accelerator. Deployments that front a
// GPU-backed inference server inject a probe wired to its memory stats.
func DefaultMemoryProbe() (int64, bool) {
	return 0, false
}
