package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApp_RegistersAllCommands(t *testing.T) {
	app := createApp()
	names := make(map[string]bool)
	for _, c := range app.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"lock", "unlock", "inspect", "health", "watch"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestUsageError_ErrorsAsUnwraps(t *testing.T) {
	var err error = &usageError{msg: "bad args"}
	var uerr *usageError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "bad args", uerr.Error())
}

func TestRun_LockMissingArgs_ExitsTwo(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"redlockctl", "lock", "only-one-arg"}

	code := run()
	assert.Equal(t, 2, code)
}
