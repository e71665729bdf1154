package cam

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert(t *testing.T, in string) string {
	t.Helper()
	c, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	return buf.String()
}

func TestDecodeStripsKeywords(t *testing.T) {
	assert.Equal(t, "1.0 2.0\n", convert(t, "Camera foo\nPositionX 1.0 Y 2.0\nenddef\n"))
}

func TestDecodeFullCamera(t *testing.T) {
	in := `;; main camera
Camera cam1
  Observer 0.0 1.5 -10.0
  UpperLeft -1.0 1.0 0.0
  BottomLeft -1.0 -1.0 0.0
  UpperRight 1.0 1.0 0.0
  Resolution 640 480
  Projection perspective
enddef
`
	want := "0.0 1.5 -10.0\n-1.0 1.0 0.0\n-1.0 -1.0 0.0\n1.0 1.0 0.0\n640 480\n"
	assert.Equal(t, want, convert(t, in))
}

func TestDecodeEmpty(t *testing.T) {
	assert.Equal(t, "", convert(t, "Camera x\nenddef\n"))
}

func TestStrip(t *testing.T) {
	tests := map[string]string{
		"X1Y2Z3":       "123",
		"fov 45.5 deg": "45.5",
		"only words":   "",
		"a-1.0 b 2":    "-1.0 2",
		"scale 1e-3":   "1-3",
		"  pad\t7  ":   "7",
	}
	for in, want := range tests {
		assert.Equal(t, want, Strip(in), "input %q", in)
	}
}
