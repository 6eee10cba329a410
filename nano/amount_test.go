package nano

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawArithmetic(t *testing.T) {
	a := MustRaw("340282366920938463463374607431768211455") // 2^128 - 1
	_, overflow := a.AddChecked(OneRaw)
	require.True(t, overflow)

	sum, overflow := OneNano.AddChecked(OneNano)
	require.False(t, overflow)
	require.Equal(t, MustRaw("2000000000000000000000000000000"), sum)

	diff, underflow := sum.SubChecked(OneNano)
	require.False(t, underflow)
	require.Equal(t, OneNano, diff)

	_, underflow = NewRaw(0).SubChecked(OneRaw)
	require.True(t, underflow)

	require.Equal(t, -1, OneMicroNano.Cmp(OneNano))
	require.Equal(t, 1, OneNano.Cmp(OneMicroNano))
	require.Equal(t, 0, OneNano.Cmp(OneNano))
	require.True(t, NewRaw(0).IsZero())
	require.False(t, OneRaw.IsZero())
}

func TestRawBytesRoundTrip(t *testing.T) {
	for _, amount := range []Raw{
		NewRaw(0), OneRaw, OneNano, OneMicroNano,
		MustRaw("340282366920938463463374607431768211455"),
		MustRaw("18446744073709551616"), // 2^64
	} {
		require.Equal(t, amount, RawFromBytes16(amount.Bytes16()))
	}
}

func TestRawStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"0", "1", "1000000000000000000000000000000",
		"340282366920938463463374607431768211455",
	} {
		amount, err := ParseRaw(s)
		require.NoError(t, err)
		require.Equal(t, s, amount.String())
	}

	_, err := ParseRaw("340282366920938463463374607431768211456") // 2^128
	require.ErrorIs(t, err, ErrAmountOutOfRange)
	_, err = ParseRaw("-1")
	require.Error(t, err)
	_, err = ParseRaw("bogus")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseNanoAmount(t *testing.T) {
	mustParse := func(s string) Raw {
		t.Helper()
		amount, err := ParseNanoAmount(s)
		require.NoError(t, err)
		return amount
	}

	require.Equal(t, OneNano, mustParse("1"))
	require.Equal(t, OneNano, mustParse("1.0"))
	require.Equal(t, NewRaw(0), mustParse("0"))
	require.Equal(t, NewRaw(0), mustParse("0.0"))
	require.Equal(t, OneRaw, mustParse("0.000000000000000000000000000001"))
	require.Equal(t, MustRaw("3100000000000000000000000000000000"), mustParse("3100"))
	require.Equal(t, MustRaw("10000000000000000000000000"), mustParse("0.00001"))

	_, err := ParseNanoAmount("0.0000000000000000000000000000001") // 31 digits
	require.Error(t, err)
	_, err = ParseNanoAmount(".")
	require.Error(t, err)
	_, err = ParseNanoAmount("x")
	require.Error(t, err)
}

func TestNanoString(t *testing.T) {
	require.Equal(t, "0", NewRaw(0).NanoString())
	require.Equal(t, "1", OneNano.NanoString())
	require.Equal(t, "984302", MustRaw("984302000000000000000000000000000000").NanoString())
	require.Equal(t, "0.000000000000000000000000000031", MustRaw("31").NanoString())

	// Round trips through the decimal form.
	for _, s := range []string{"83.432", "10222.020022", "0.01", "5"} {
		amount, err := ParseNanoAmount(s)
		require.NoError(t, err)
		require.Equal(t, s, amount.NanoString())
	}
}

func TestRawJSON(t *testing.T) {
	data, err := json.Marshal(OneNano)
	require.NoError(t, err)
	require.Equal(t, `"1000000000000000000000000000000"`, string(data))

	var decoded Raw
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, OneNano, decoded)

	require.Error(t, json.Unmarshal([]byte(`"zzz"`), &decoded))
}
