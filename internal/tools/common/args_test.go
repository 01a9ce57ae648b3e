package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountFromArgs(t *testing.T) {
	assert.Equal(t, "", AccountFromArgs(map[string]interface{}{}))
	assert.Equal(t, "", AccountFromArgs(map[string]interface{}{"account": 7}))
	assert.Equal(t, "work", AccountFromArgs(map[string]interface{}{"account": "work"}))
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"folder": "archive", "empty": ""}
	assert.Equal(t, "archive", StringArg(args, "folder", "inbox"))
	assert.Equal(t, "inbox", StringArg(args, "empty", "inbox"))
	assert.Equal(t, "inbox", StringArg(args, "missing", "inbox"))
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{"maxResults": float64(25), "bad": "nope"}
	assert.Equal(t, 25, IntArg(args, "maxResults", 10))
	assert.Equal(t, 10, IntArg(args, "bad", 10))
	assert.Equal(t, 10, IntArg(args, "missing", 10))
}

func TestStringSliceArg(t *testing.T) {
	args := map[string]interface{}{
		"single": "a@example.com",
		"many":   []interface{}{"a@example.com", "b@example.com", 3},
		"empty":  "",
	}
	assert.Equal(t, []string{"a@example.com"}, StringSliceArg(args, "single"))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, StringSliceArg(args, "many"))
	assert.Nil(t, StringSliceArg(args, "empty"))
	assert.Nil(t, StringSliceArg(args, "missing"))
}
