package main

import (
	"strings"
	"testing"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/stretchr/testify/require"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name    string
		command string
		in      []string
		want    []string
	}{{
		name:    "no flags",
		command: "send",
		in:      []string{"a", "b", "c"},
		want:    []string{"a", "b", "c"},
	}, {
		name:    "trailing value flag",
		command: "send",
		in:      []string{"a", "2", "b", "--representative", "rep"},
		want:    []string{"--representative", "rep", "a", "2", "b"},
	}, {
		name:    "trailing bool flag",
		command: "send_camo",
		in:      []string{"a", "2", "b", "--auto"},
		want:    []string{"--auto", "a", "2", "b"},
	}, {
		name:    "mixed flags",
		command: "send_camo",
		in:      []string{"a", "2", "b", "--auto", "--notifier-amount", "0.5"},
		want:    []string{"--auto", "--notifier-amount", "0.5", "a", "2", "b"},
	}, {
		name:    "short value flag",
		command: "notify",
		in:      []string{"x", "y", "z", "-a", "1"},
		want:    []string{"-a", "1", "x", "y", "z"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, reorderArgs(test.command, test.in))
		})
	}
}

func TestParseAnyAccount(t *testing.T) {
	var seed nano.SecretBytes
	seed[0] = 1
	account := nano.KeyFromSeed(&seed, 0).Account()

	parsed, err := parseAnyAccount(account.String())
	require.NoError(t, err)
	require.False(t, parsed.isCamo)
	require.Equal(t, account, parsed.account)

	keys, err := nano.CamoKeysFromSeed(&seed, 0,
		nano.NewCamoVersions([]nano.CamoVersion{nano.CamoVersionOne}))
	require.NoError(t, err)
	camo := keys.CamoAccount()

	parsed, err = parseAnyAccount(camo.String())
	require.NoError(t, err)
	require.True(t, parsed.isCamo)
	require.Equal(t, camo, parsed.camoAccount)

	_, err = parseAnyAccount("neither")
	require.ErrorIs(t, err, nano.ErrInvalidAddress)
}

func TestDefaultsParse(t *testing.T) {
	require.NotEmpty(t, defaultRepresentatives())
	require.NotEmpty(t, defaultNodes())

	cfg := defaultConfig()
	require.NotZero(t, cfg.WorkDifficulty)
	require.True(t, strings.HasPrefix(cfg.Representatives[0].String(), "nano_"))
}
