package pipe

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeRoundTrip(t *testing.T) {
	p := New(8) // small buffer forces multiple write chunks

	payload := bytes.Repeat([]byte("abcdefgh"), 100)

	done := make(chan error, 1)
	go func() {
		_, err := p.Write(payload)
		if err != nil {
			done <- err
			return
		}
		done <- p.Close()
	}()

	got, err := io.ReadAll(p)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, payload, got)
}

func TestPipeCloseWithError(t *testing.T) {
	p := New(1024)
	boom := io.ErrUnexpectedEOF

	go func() {
		_, _ = p.Write([]byte("partial"))
		_ = p.CloseWithError(boom)
	}()

	buf := make([]byte, 7)
	n, err := io.ReadFull(p, buf)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(buf[:n]))

	_, err = p.Read(make([]byte, 1))
	assert.ErrorIs(t, err, boom)
}

func TestPipeCloseReadUnblocksWriter(t *testing.T) {
	p := New(4)
	_ = p.CloseRead()

	_, err := p.Write([]byte("xxxxxxxx"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
