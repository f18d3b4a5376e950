package checklist

import "fmt"

// ConsistencyError reports a post-reconciliation item-count mismatch. It
// means the diff diverged from the input list and is fatal for the run:
// no fan-out happens and the operator must inspect the template before
// re-running. It must never be swallowed or retried automatically.
type ConsistencyError struct {
	Checklist string
	Expected  int
	Actual    int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("checklist %q item count mismatch: expected %d, found %d",
		e.Checklist, e.Expected, e.Actual)
}
