package lgt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenenorm/internal/diag"
	"scenenorm/internal/lines"
)

func mustLines(t *testing.T, in string) []lines.Line {
	t.Helper()
	ls, err := lines.All(strings.NewReader(in))
	require.NoError(t, err)
	return ls
}

func texts(ls []lines.Line) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.Text)
	}
	return out
}

func TestFrameProject(t *testing.T) {
	children := mustLines(t, "TotalFlux 1200\ncolor 1 1 1\nintensity 1 0.9 0.8\nTotalFluxScale 2\n")

	light := &frame{kind: kindLight, children: children}
	assert.Equal(t, []string{"TotalFlux 1200", "intensity 1 0.9 0.8"}, texts(light.project()))

	fixture := &frame{kind: kindFixture, children: mustLines(t, "Light lamp\nPosition 1 2 3\nRotation 0 0 0\n")}
	assert.Equal(t, []string{"Light lamp", "Position 1 2 3"}, texts(fixture.project()))

	other := &frame{kind: kindOther, children: children}
	assert.Empty(t, other.project())
}

func TestNewFrameKind(t *testing.T) {
	assert.Equal(t, kindLight, newFrame(lines.Line{Text: "Light a b"}).kind)
	assert.Equal(t, kindFixture, newFrame(lines.Line{Text: "Fixture f"}).kind)
	assert.Equal(t, kindOther, newFrame(lines.Line{Text: "LightGroup g"}).kind)
}

func TestRegistryKeepsFirstRegistrationOrder(t *testing.T) {
	r := newRegistry()
	r.add("Fixture b", 1, mustLines(t, "Position 1 1 1\n"))
	r.add("Fixture a", 5, nil)
	r.add("Fixture b", 9, mustLines(t, "Light x\n"))

	assert.Equal(t, []string{"Fixture b", "Fixture a"}, r.order)
	assert.Equal(t, 2, r.len())
	got, ok := r.get("Fixture b")
	require.True(t, ok)
	assert.Equal(t, []string{"Position 1 1 1", "Light x"}, texts(got))
	assert.Equal(t, 1, r.headers["Fixture b"])

	got, ok = r.get("Fixture a")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestParseBlocksRegistersByHeader(t *testing.T) {
	in := `enddef
Light spot 1
  TotalFlux 800
  intensity 1 1 1
  Light inner
enddef
Fixture f1
  Light spot 1
  Position 0 5 0
enddef
Position 9 9 9
`
	var warn diag.Collector
	res := parseBlocks(mustLines(t, in), &warn)
	require.NoError(t, res.unterminated())
	assert.False(t, res.empty())
	assert.Equal(t, []string{"Light spot 1"}, res.lights.order)
	assert.Equal(t, []string{"Fixture f1"}, res.fixtures.order)
	assert.Equal(t, 1, warn.Len(), "stray terminator is reported")
}

func TestParseBlocksUnterminated(t *testing.T) {
	res := parseBlocks(mustLines(t, "Light a\nTotalFlux 1\nenddef\nFixture f\nLight a\n"), nil)
	err := res.unterminated()
	require.ErrorIs(t, err, diag.ErrUnterminated)

	var de *diag.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Line)
}

func TestParseBlocksEmptyForFlatLayout(t *testing.T) {
	res := parseBlocks(mustLines(t, "Position 1 2 3\nTotalFlux 5\nintensity 1 1 1\n"), nil)
	assert.True(t, res.empty())
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		cause error
	}{
		{
			"unknown light",
			"Light a\nTotalFlux 1\nintensity 1 1 1\nenddef\nFixture f\nLight b\nPosition 0 0 0\nenddef\n",
			diag.ErrUnresolved,
		},
		{
			"missing position",
			"Light a\nTotalFlux 1\nintensity 1 1 1\nenddef\nFixture f\nLight a\nenddef\n",
			diag.ErrMalformed,
		},
		{
			"missing light reference",
			"Light a\nTotalFlux 1\nintensity 1 1 1\nenddef\nFixture f\nPosition 0 0 0\nenddef\n",
			diag.ErrMalformed,
		},
		{
			"light without intensity",
			"Light a\nTotalFlux 1\nenddef\nFixture f\nLight a\nPosition 0 0 0\nenddef\n",
			diag.ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseBlocks(mustLines(t, tt.in), nil)
			require.NoError(t, res.unterminated())
			_, err := res.resolve()
			require.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestParseFlatMismatch(t *testing.T) {
	_, err := parseFlat(mustLines(t, "Position 1 2 3\nPosition 4 5 6\nTotalFlux 5\nintensity 1 1 1\n"))
	require.ErrorIs(t, err, diag.ErrMismatch)
}
