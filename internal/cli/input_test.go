package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPasswords feeds the given entries to readPassword in order.
func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	oldRead, oldFd := readPassword, stdinFd
	t.Cleanup(func() { readPassword, stdinFd = oldRead, oldFd })

	stdinFd = func() int { return 0 }
	readPassword = func(int) ([]byte, error) {
		if len(entries) == 0 {
			return nil, errors.New("no more input")
		}
		next := entries[0]
		entries = entries[1:]
		return []byte(next), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  alice \nbob"))

	got, err := GetSimpleText(r, "Username", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = GetSimpleText(r, "Username", &out)
	require.NoError(t, err)
	assert.Equal(t, "bob", got)

	_, err = GetSimpleText(r, "Username", &out)
	assert.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	stubPasswords(t, "pw1")
	var out bytes.Buffer

	pw, err := GetPassword("Password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw1"), pw)
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetNewPassword(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		stubPasswords(t, "pw1", "pw1")
		pw, err := GetNewPassword("Password", &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "pw1", string(pw))
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "pw1", "pw2")
		_, err := GetNewPassword("Password", &bytes.Buffer{})
		var ee *ExitError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, ExitCodeUsage, ee.Code)
	})

	t.Run("read error", func(t *testing.T) {
		stubPasswords(t, "pw1")
		_, err := GetNewPassword("Password", &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := Confirm(bufio.NewReader(strings.NewReader(tt.input)), "Delete?", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Delete? [y/N]: ", out.String())
		})
	}
}
