package fanout

import (
	"fmt"
	"strings"
)

// Reply is the aggregated result of a fan-out, in one of two shapes: a
// single-account reply, where an account failure becomes a call-level
// failure, or a multi-account reply, which always renders and carries
// failures inline so partial results stay visible.
type Reply struct {
	single    *Outcome[string]
	successes []Outcome[string]
	failures  []Outcome[string]
}

// Aggregate classifies outcomes into a reply. Outcome order is preserved
// within the success and failure groups.
func Aggregate(outcomes []Outcome[string]) Reply {
	if len(outcomes) == 1 {
		o := outcomes[0]
		return Reply{single: &o}
	}

	var r Reply
	for _, o := range outcomes {
		if o.Err != nil {
			r.failures = append(r.failures, o)
		} else {
			r.successes = append(r.successes, o)
		}
	}
	return r
}

// Render produces the textual reply. Single-account replies surface the
// account's failure as the call's failure; multi-account replies never
// fail, rendering `[account]`-labeled success blocks first and failure
// blocks after.
func (r Reply) Render() (string, error) {
	if r.single != nil {
		if r.single.Err != nil {
			return "", fmt.Errorf("account %q: %w", r.single.Account, r.single.Err)
		}
		return r.single.Data, nil
	}

	if len(r.successes) == 0 && len(r.failures) == 0 {
		return "No accounts configured.", nil
	}

	blocks := make([]string, 0, len(r.successes)+len(r.failures))
	for _, o := range r.successes {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", o.Account, o.Data))
	}
	for _, o := range r.failures {
		blocks = append(blocks, fmt.Sprintf("[%s] Error: %v", o.Account, o.Err))
	}
	return strings.Join(blocks, "\n\n"), nil
}
