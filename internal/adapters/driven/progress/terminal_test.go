package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Lifecycle(t *testing.T) {
	buf := new(bytes.Buffer)
	p := NewTerminal(buf)

	p.Start("polygons", 2)
	assert.Contains(t, buf.String(), "polygons")
	assert.Contains(t, buf.String(), "0/2")

	p.Advance(1)
	p.Advance(1)
	assert.Contains(t, buf.String(), "2/2")

	p.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	n := buf.Len()
	p.Advance(1)
	p.Finish()
	assert.Equal(t, n, buf.Len(), "no output after finish")
}

func TestTerminal_ClampsOverrun(t *testing.T) {
	buf := new(bytes.Buffer)
	p := NewTerminal(buf)

	p.Start("features", 1)
	p.Advance(5)
	p.Finish()

	assert.Contains(t, buf.String(), "1/1")
	assert.NotContains(t, buf.String(), "5/1")
}

func TestTerminal_RestartFinishesPrevious(t *testing.T) {
	buf := new(bytes.Buffer)
	p := NewTerminal(buf)

	p.Start("first", 3)
	p.Start("second", 1)
	p.Finish()

	out := buf.String()
	first := strings.Index(out, "first")
	second := strings.Index(out, "second")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestNew_NotTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, Nop{}, New(f))
	assert.Equal(t, Nop{}, New(nil))
}
