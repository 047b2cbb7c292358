package evaluator

// IsDegraded reports a systemic data-source failure: every requested ticker
// failed and at least one was requested.
func IsDegraded(errorCount, requested int) bool {
	return requested > 0 && errorCount == requested
}
