package domain

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeEncodeText(t *testing.T) {
	ok := Success("payload")
	require.True(t, ok.OK())
	require.Equal(t, "OK", ok.Status())
	require.Equal(t, "OKpayload", ok.Encode())

	empty := Success("")
	require.Equal(t, "OK", empty.Encode())

	fail := Failure[string](HTTPStatusError(404))
	require.False(t, fail.OK())
	require.Equal(t, "ERHTTP error status 404", fail.Encode())
	require.Equal(t, KindHTTPStatus, fail.Err().Kind)
}

func TestOutcomeImagePayloadIsEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	o := Success[image.Image](img)
	require.Equal(t, "OK", o.Status())
	require.Empty(t, o.Payload())
	require.Same(t, img, o.Value())
}

func TestErrorMessages(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		err  *FetchError
		kind Kind
		msg  string
	}{
		{NetworkError(boom), KindNetwork, "Network error. boom"},
		{CacheReadError(boom), KindCacheRead, "Cache read error. boom"},
		{CacheWriteError(boom), KindCacheWrite, "Cache write error. boom"},
		{Exception(boom), KindException, "Exception. boom"},
		{Exception(nil), KindException, "Exception. "},
	}
	for _, tc := range cases {
		require.Equal(t, tc.kind, tc.err.Kind)
		require.Equal(t, tc.msg, tc.err.Error())
	}
}

func TestFailureNilErrorBecomesException(t *testing.T) {
	o := Failure[string](nil)
	require.False(t, o.OK())
	require.Equal(t, KindException, o.Err().Kind)
}

func TestDecode(t *testing.T) {
	status, payload, err := Decode("ERNetwork error. refused")
	require.NoError(t, err)
	require.Equal(t, StatusError, status)
	require.Equal(t, "Network error. refused", payload)

	_, _, err = Decode("O")
	require.Error(t, err)

	_, _, err = Decode("XXpayload")
	require.Error(t, err)
}

func TestSessionWithLocationCopies(t *testing.T) {
	s := Session{SessionID: "abc", Latitude: 1}
	moved := s.WithLocation(48.1, 11.5, 90)
	require.Equal(t, 1.0, s.Latitude)
	require.Equal(t, 48.1, moved.Latitude)
	require.Equal(t, "abc", moved.SessionID)
}
