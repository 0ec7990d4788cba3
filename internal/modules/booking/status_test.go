package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_MatchesGraph(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusRequested, StatusConfirmed}:  true,
		{StatusRequested, StatusCancelled}:  true,
		{StatusConfirmed, StatusInProgress}: true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusInProgress, StatusCompleted}: true,
		{StatusInProgress, StatusCancelled}: true,
		{StatusCompleted, StatusDisputed}:   true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := legal[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_NoSelfLoops(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.False(t, CanTransition(s, s), "self loop on %s", s)
	}
}

func TestCanTransition_UnknownStatuses(t *testing.T) {
	assert.False(t, CanTransition("PENDING", StatusConfirmed))
	assert.False(t, CanTransition(StatusRequested, "confirmed"))
	assert.False(t, CanTransition("", ""))
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusDisputed.IsTerminal())
	assert.Empty(t, Successors(StatusCancelled))
	assert.Empty(t, Successors(StatusDisputed))

	for _, s := range []Status{StatusRequested, StatusConfirmed, StatusInProgress, StatusCompleted} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.False(t, Status("UNKNOWN").IsTerminal())
}

func TestSuccessors(t *testing.T) {
	assert.Equal(t, []Status{StatusDisputed}, Successors(StatusCompleted))
	assert.Equal(t, []Status{StatusConfirmed, StatusCancelled}, Successors(StatusRequested))
	assert.Equal(t, []Status{StatusCompleted, StatusCancelled}, Successors(StatusInProgress))
}

func TestNothingLeadsBackToRequested(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.False(t, CanTransition(s, StatusRequested), s)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("requested")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseStatus("ACCEPTED")
	assert.ErrorIs(t, err, ErrValidation)
}

func statusPtr(s Status) *Status { return &s }

func TestVerifyTrail(t *testing.T) {
	good := []HistoryRecord{
		{ToStatus: StatusRequested},
		{FromStatus: statusPtr(StatusRequested), ToStatus: StatusConfirmed},
		{FromStatus: statusPtr(StatusConfirmed), ToStatus: StatusInProgress},
		{FromStatus: statusPtr(StatusInProgress), ToStatus: StatusCompleted},
		{FromStatus: statusPtr(StatusCompleted), ToStatus: StatusDisputed},
	}
	assert.NoError(t, VerifyTrail(good))

	cases := map[string][]HistoryRecord{
		"empty":            nil,
		"no creation":      {{FromStatus: statusPtr(StatusRequested), ToStatus: StatusConfirmed}},
		"illegal edge":     {{ToStatus: StatusRequested}, {FromStatus: statusPtr(StatusRequested), ToStatus: StatusCompleted}},
		"gap in chain":     {{ToStatus: StatusRequested}, {FromStatus: statusPtr(StatusConfirmed), ToStatus: StatusInProgress}},
		"second null from": {{ToStatus: StatusRequested}, {ToStatus: StatusConfirmed}},
		"leaves terminal":  {{ToStatus: StatusRequested}, {FromStatus: statusPtr(StatusRequested), ToStatus: StatusCancelled}, {FromStatus: statusPtr(StatusCancelled), ToStatus: StatusConfirmed}},
	}
	for name, trail := range cases {
		assert.Error(t, VerifyTrail(trail), name)
	}
}
