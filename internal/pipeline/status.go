package pipeline

// StatusReporter is the narrow slice of the admin status surface the
// pipeline needs: publish which phase/iteration is in flight, and poll
// whether an operator has asked the run to stop. A nil StatusReporter is
// always a no-op, so callers that don't run an admin surface (tests,
// single-shot CLI runs without RINGKNN_ADMIN_ENABLED) pass nil.
type StatusReporter interface {
	SetPhase(phase string)
	SetIteration(iteration int)
	Aborted() bool
}

func reportPhase(r StatusReporter, phase string) {
	if r != nil {
		r.SetPhase(phase)
	}
}

func reportIteration(r StatusReporter, iteration int) {
	if r != nil {
		r.SetIteration(iteration)
	}
}

func aborted(r StatusReporter) bool {
	return r != nil && r.Aborted()
}
