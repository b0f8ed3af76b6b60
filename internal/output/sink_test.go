package output_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/output"
)

// TestSink_SaveRelativePath verifies relative destinations resolve against
// the base directory and parent directories are created.
func TestSink_SaveRelativePath(t *testing.T) {
	base := t.TempDir()
	sink := output.NewSink(base, 0, zaptest.NewLogger(t))

	require.NoError(t, sink.Deliver(filepath.Join("reports", "out.json"), `{"results":[]}`))

	data, err := os.ReadFile(filepath.Join(base, "reports", "out.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"results":[]}`, string(data))
}

// TestSink_SaveAbsolutePath verifies absolute destinations ignore the base
// directory.
func TestSink_SaveAbsolutePath(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(t.TempDir(), "out.txt")
	sink := output.NewSink(base, 0, zaptest.NewLogger(t))

	require.NoError(t, sink.Deliver(target, "report body"))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(data))
}

// TestSink_SaveOverwrites verifies a second delivery replaces the file.
func TestSink_SaveOverwrites(t *testing.T) {
	base := t.TempDir()
	sink := output.NewSink(base, 0, zaptest.NewLogger(t))

	require.NoError(t, sink.Deliver("out.txt", "first"))
	require.NoError(t, sink.Deliver("out.txt", "second"))

	data, err := os.ReadFile(filepath.Join(base, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

// TestSink_PostDeliversBody verifies URL destinations receive the rendered
// report as the POST body.
func TestSink_PostDeliversBody(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := output.NewSink(t.TempDir(), 0, zaptest.NewLogger(t))
	require.NoError(t, sink.Deliver(srv.URL, "rendered report"))
	assert.Equal(t, "rendered report", string(received))
}

// TestSink_PostTimeout verifies a transport timeout surfaces as a structured
// delivery error naming the destination.
func TestSink_PostTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	sink := output.NewSink(t.TempDir(), 50*time.Millisecond, zaptest.NewLogger(t))
	err := sink.Deliver(srv.URL, "rendered report")
	require.Error(t, err)

	se, ok := err.(schemas.ScanError)
	require.True(t, ok, "timeout must surface as a structured error")
	assert.Equal(t, schemas.KindDelivery, se.Kind)
	assert.Contains(t, se.Msg, srv.URL)
	assert.Contains(t, se.Msg, "timed out")
}

// TestSink_ConnectionRefused verifies non-timeout transport failures
// propagate as plain wrapped errors.
func TestSink_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	sink := output.NewSink(t.TempDir(), 0, zaptest.NewLogger(t))
	err := sink.Deliver(srv.URL, "rendered report")
	require.Error(t, err)
	_, ok := err.(schemas.ScanError)
	assert.False(t, ok)
}
