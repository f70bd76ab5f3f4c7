// Package feedback — counters.go: the pure counter/flag arithmetic applied
// inside the vote transaction.
package feedback

// tally is the sighting's feedback state as the transaction sees it.
type tally struct {
	Positive int
	Negative int
	Flagged  bool
}

// applyVote returns the tally after one voter's verdict. prior is the voter's
// existing vote, nil for a first vote. changed is false when the vote repeats
// the prior choice. justFlagged marks the vote that crossed the auto-flag
// threshold; the flag never clears once set.
func applyVote(t tally, prior *bool, accurate bool, minVotes int, negRatio float64) (out tally, changed, justFlagged bool) {
	if prior != nil && *prior == accurate {
		return t, false, false
	}

	out = t
	if accurate {
		out.Positive++
		if prior != nil {
			out.Negative--
		}
	} else {
		out.Negative++
		if prior != nil {
			out.Positive--
		}
	}

	if !out.Flagged {
		total := out.Positive + out.Negative
		if total >= minVotes && float64(out.Negative)/float64(total) > negRatio {
			out.Flagged = true
			justFlagged = true
		}
	}
	return out, true, justFlagged
}
