package procworker

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Func: "echo", Arg: []byte(`"hello"`)}
	require.NoError(t, WriteFrame(&buf, req))

	var got Request
	require.NoError(t, ReadFrame(&buf, &got))
	assert.Equal(t, req.Func, got.Func)
	assert.JSONEq(t, `"hello"`, string(got.Arg))
}

func TestReadFrameEOFOnEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	var got Request
	err := ReadFrame(&buf, &got)
	require.Error(t, err)
}
