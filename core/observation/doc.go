// Package observation extracts numeric observations from a paused
// branch-and-bound solver.
//
// Every extractor implements Function: Reset is called once per episode and
// Extract at every decision point. Extractors read the solver through the
// narrow solver.Model view and never modify it. Cells whose feature is not
// defined for an entity hold the tensor.NA sentinel.
//
// Extractors that cache static features keep them in an explicit StaticCache
// which Reset invalidates. Each Extract returns a freshly allocated value owned
// by the caller.
package observation
