package fanout

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSingleSuccess(t *testing.T) {
	reply := Aggregate([]Outcome[string]{
		{Account: "work", Data: "3 messages"},
	})

	out, err := reply.Render()
	require.NoError(t, err)
	// Single-account data comes back unwrapped, without a label.
	assert.Equal(t, "3 messages", out)
}

func TestRenderSingleFailure(t *testing.T) {
	reply := Aggregate([]Outcome[string]{
		{Account: "work", Err: errors.New("token expired")},
	})

	_, err := reply.Render()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "work")
	assert.Contains(t, err.Error(), "token expired")
}

func TestRenderMultiMixed(t *testing.T) {
	reply := Aggregate([]Outcome[string]{
		{Account: "work", Data: "5 messages"},
		{Account: "personal", Err: errors.New("not authenticated")},
		{Account: "shared", Data: "2 messages"},
	})

	out, err := reply.Render()
	require.NoError(t, err, "multi-account replies never fail as a whole")

	assert.Contains(t, out, "[work]\n5 messages")
	assert.Contains(t, out, "[shared]\n2 messages")
	assert.Contains(t, out, "[personal] Error: not authenticated")

	// Successes render before failures regardless of input order.
	assert.Less(t, strings.Index(out, "[shared]"), strings.Index(out, "[personal]"))
}

func TestRenderMultiAllFailed(t *testing.T) {
	reply := Aggregate([]Outcome[string]{
		{Account: "a", Err: errors.New("err-a")},
		{Account: "b", Err: errors.New("err-b")},
	})

	out, err := reply.Render()
	require.NoError(t, err, "even all-failed multi replies succeed at the aggregate level")
	assert.Contains(t, out, "[a] Error: err-a")
	assert.Contains(t, out, "[b] Error: err-b")
}

func TestRenderPreservesAccountOrderWithinGroups(t *testing.T) {
	reply := Aggregate([]Outcome[string]{
		{Account: "one", Data: "d1"},
		{Account: "two", Data: "d2"},
		{Account: "three", Data: "d3"},
	})

	out, err := reply.Render()
	require.NoError(t, err)

	i1 := strings.Index(out, "[one]")
	i2 := strings.Index(out, "[two]")
	i3 := strings.Index(out, "[three]")
	assert.True(t, i1 < i2 && i2 < i3, "blocks follow account order: %s", out)
}

func TestRenderEmpty(t *testing.T) {
	reply := Aggregate(nil)
	out, err := reply.Render()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
