package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestApplyVoteFirstVotes(t *testing.T) {
	out, changed, justFlagged := applyVote(tally{}, nil, true, 3, 0.7)
	assert.True(t, changed)
	assert.False(t, justFlagged)
	assert.Equal(t, tally{Positive: 1}, out)

	out, changed, _ = applyVote(tally{Positive: 1}, nil, false, 3, 0.7)
	assert.True(t, changed)
	assert.Equal(t, tally{Positive: 1, Negative: 1}, out)
}

func TestApplyVoteRepeatIsNoOp(t *testing.T) {
	start := tally{Positive: 2, Negative: 1}
	out, changed, justFlagged := applyVote(start, boolPtr(true), true, 3, 0.7)
	assert.False(t, changed)
	assert.False(t, justFlagged)
	assert.Equal(t, start, out)
}

func TestApplyVoteChangeMovesCounter(t *testing.T) {
	out, changed, _ := applyVote(tally{Positive: 2, Negative: 1}, boolPtr(true), false, 3, 0.7)
	assert.True(t, changed)
	assert.Equal(t, tally{Positive: 1, Negative: 2}, out)

	out, changed, _ = applyVote(out, boolPtr(false), true, 3, 0.7)
	assert.True(t, changed)
	assert.Equal(t, tally{Positive: 2, Negative: 1}, out)
}

// A reporter's sighting drifts from one positive vote into flagged territory
// as voters change their minds and pile on.
func TestApplyVoteFlagScenario(t *testing.T) {
	state := tally{}

	// Voter A: accurate.
	state, _, _ = applyVote(state, nil, true, 3, 0.7)
	assert.Equal(t, tally{Positive: 1}, state)

	// Voter A flips to not-there.
	state, changed, justFlagged := applyVote(state, boolPtr(true), false, 3, 0.7)
	assert.True(t, changed)
	assert.False(t, justFlagged)
	assert.Equal(t, tally{Negative: 1}, state)

	// Voter B: not there. Two votes total, below the floor.
	state, _, justFlagged = applyVote(state, nil, false, 3, 0.7)
	assert.False(t, justFlagged)
	assert.Equal(t, tally{Negative: 2}, state)

	// Voter C: not there. 3 votes, 100% negative — flag trips.
	state, _, justFlagged = applyVote(state, nil, false, 3, 0.7)
	assert.True(t, justFlagged)
	assert.Equal(t, tally{Negative: 3, Flagged: true}, state)
}

func TestApplyVoteFlagNeedsStrictMajority(t *testing.T) {
	// 3 of 10 negative: 30%, no flag.
	out, _, justFlagged := applyVote(tally{Positive: 7, Negative: 2}, nil, false, 3, 0.7)
	assert.False(t, justFlagged)
	assert.False(t, out.Flagged)

	// Exactly at the ratio is not above it: 7 of 10 negative with 0.7 threshold.
	out, _, justFlagged = applyVote(tally{Positive: 3, Negative: 6}, nil, false, 3, 0.7)
	assert.False(t, justFlagged)
	assert.False(t, out.Flagged)

	// 8 of 10: above, flag trips.
	out, _, justFlagged = applyVote(tally{Positive: 2, Negative: 7}, nil, false, 3, 0.7)
	assert.True(t, justFlagged)
	assert.True(t, out.Flagged)
}

func TestApplyVoteFlagIsOneWay(t *testing.T) {
	// Positive votes after flagging never clear it.
	out, _, justFlagged := applyVote(tally{Negative: 3, Flagged: true}, nil, true, 3, 0.7)
	assert.False(t, justFlagged)
	assert.True(t, out.Flagged)
	assert.Equal(t, 1, out.Positive)
}
