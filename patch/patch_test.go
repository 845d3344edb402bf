package patch_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack"
	"pipelined.dev/rack/catalog"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/patch"
)

func newEngine(t *testing.T) *rack.Engine {
	t.Helper()
	e, err := rack.New(48000, 64, rack.WithCatalog(catalog.Default()))
	require.NoError(t, err)
	return e
}

// voice builds a small patch with a feedback cable.
func voice(t *testing.T) *rack.Engine {
	t.Helper()
	e := newEngine(t)
	for _, m := range []struct{ typ, id string }{
		{"clock", "clk"},
		{"divider", "div"},
		{"envelope", "env"},
		{"oscillator", "osc"},
		{"filter", "vcf"},
		{"vca", "vca"},
		{"output", "out"},
	} {
		_, err := e.AddModule(m.typ, m.id)
		require.NoError(t, err)
	}
	osc, _ := e.Module("osc")
	osc.Meta = module.Meta{Label: "lead", X: 10, Y: 20}
	require.NoError(t, osc.SetParam("tune", -12))
	div, _ := e.Module("div")
	require.NoError(t, div.SetParam("mode", 4))
	vcf, _ := e.Module("vcf")
	require.NoError(t, vcf.SetParam("resonance", 0.7))

	errs := e.Connect([]rack.Connection{
		{FromModule: "clk", FromPort: "clock", ToModule: "div", ToPort: "clock"},
		{FromModule: "div", FromPort: "out", ToModule: "env", ToPort: "gate"},
		{FromModule: "osc", FromPort: "saw", ToModule: "vcf", ToPort: "in"},
		{FromModule: "env", FromPort: "env", ToModule: "vcf", ToPort: "cutoff"},
		{FromModule: "vcf", FromPort: "lowpass", ToModule: "vca", ToPort: "in"},
		{FromModule: "env", FromPort: "env", ToModule: "vca", ToPort: "cv"},
		{FromModule: "vca", FromPort: "out", ToModule: "out", ToPort: "left"},
		{FromModule: "vca", FromPort: "out", ToModule: "out", ToPort: "right"},
		{FromModule: "vca", FromPort: "out", ToModule: "osc", ToPort: "fm"},
	})
	require.Empty(t, errs)
	return e
}

func encode(t *testing.T, doc patch.Document, f patch.Format) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, patch.Encode(&buf, doc, f))
	return buf.String()
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []patch.Format{patch.YAML, patch.JSON} {
		t.Run(f.String(), func(t *testing.T) {
			saved := patch.Save(voice(t))
			encoded := encode(t, saved, f)

			decoded, err := patch.Decode(strings.NewReader(encoded), f)
			require.NoError(t, err)
			e := newEngine(t)
			diag := patch.Load(e, decoded)
			require.Empty(t, diag, spew.Sdump(diag))

			restored := patch.Save(e)
			reencoded := encode(t, restored, f)
			if encoded != reencoded {
				diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(encoded),
					B:        difflib.SplitLines(reencoded),
					FromFile: "saved",
					ToFile:   "restored",
					Context:  3,
				})
				t.Fatalf("round trip mismatch:\n%s", diff)
			}
			assert.Equal(t, saved, restored)

			osc, ok := e.Module("osc")
			require.True(t, ok)
			assert.Equal(t, module.Meta{Label: "lead", X: 10, Y: 20}, osc.Meta)
			assert.Equal(t, map[string]int{"mode": 4}, restored.Modules[1].Switches)
			assert.Equal(t, -12.0, restored.Modules[3].Params["tune"])
		})
	}
}

func TestRoundTripSchedule(t *testing.T) {
	e := voice(t)
	var buf bytes.Buffer
	require.NoError(t, patch.Encode(&buf, patch.Save(e), patch.YAML))
	doc, err := patch.Decode(&buf, patch.YAML)
	require.NoError(t, err)
	restored := newEngine(t)
	require.Empty(t, patch.Load(restored, doc))
	assert.Equal(t, e.Schedule().Order, restored.Schedule().Order)
}

func TestLoadTolerant(t *testing.T) {
	doc := `
version: 1
modules:
- {type: oscillator, id: osc, params: {tune: 100, bogus: 1}}
- {type: theremin, id: t}
- {type: divider, id: div, switches: {mode: 3}}
- {type: vca, id: osc}
cables:
- {from: osc, fromPort: saw, to: t, toPort: in}
- {from: osc, fromPort: nope, to: div, toPort: clock}
- {from: osc, fromPort: pulse, to: div, toPort: clock}
`
	d, err := patch.Decode(strings.NewReader(doc), patch.YAML)
	require.NoError(t, err)
	e := newEngine(t)
	diag := patch.Load(e, d)

	assert.Equal(t, 6, len(diag), spew.Sdump(diag))
	assert.True(t, errors.Is(diag, patch.ErrParamRange))
	assert.True(t, errors.Is(diag, module.ErrUnknownParam))
	assert.True(t, errors.Is(diag, rack.ErrUnknownType))
	assert.True(t, errors.Is(diag, rack.ErrDuplicateID))
	assert.True(t, errors.Is(diag, rack.ErrUnknownModule))
	assert.True(t, errors.Is(diag, rack.ErrUnknownPort))
	assert.Error(t, diag.Err())

	assert.Equal(t, 2, len(e.Modules()))
	osc, _ := e.Module("osc")
	tune, _ := osc.Param("tune")
	assert.Equal(t, 24.0, tune)
	div, _ := e.Module("div")
	mode, _ := div.Param("mode")
	assert.Equal(t, 3.0, mode)
	assert.Equal(t, []rack.Connection{
		{FromModule: "osc", FromPort: "pulse", ToModule: "div", ToPort: "clock"},
	}, e.Connections())
}

func TestLoadDuplicateInput(t *testing.T) {
	doc := patch.Document{
		Version: patch.Version,
		Modules: []patch.Module{
			{Type: "oscillator", ID: "osc"},
			{Type: "vca", ID: "vca"},
		},
		Cables: []patch.Cable{
			{From: "osc", FromPort: "saw", To: "vca", ToPort: "in"},
			{From: "osc", FromPort: "sine", To: "vca", ToPort: "in"},
		},
	}
	e := newEngine(t)
	diag := patch.Load(e, doc)
	require.Equal(t, 1, len(diag), spew.Sdump(diag))
	assert.True(t, errors.Is(diag, patch.ErrInputConnected))
	assert.Contains(t, diag[0].Error(), "osc.sine -> vca.in replaces osc.saw")
	assert.Equal(t, []rack.Connection{
		{FromModule: "osc", FromPort: "sine", ToModule: "vca", ToPort: "in"},
	}, e.Connections())
}

func TestLoadNewerVersion(t *testing.T) {
	diag := patch.Load(newEngine(t), patch.Document{Version: patch.Version + 1})
	assert.Equal(t, 1, len(diag))
	assert.Nil(t, patch.Diagnostics(nil).Err())
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	saved := patch.Save(voice(t))
	for _, name := range []string{"voice.yaml", "voice.yml", "voice.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, patch.WriteFile(path, saved), name)
		doc, err := patch.ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, saved, doc, name)
	}

	err := patch.WriteFile(filepath.Join(dir, "voice.txt"), saved)
	assert.True(t, errors.Is(err, patch.ErrUnsupportedFormat))
	_, err = patch.ReadFile(filepath.Join(dir, "voice.txt"))
	assert.True(t, errors.Is(err, patch.ErrUnsupportedFormat))
	_, err = patch.ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	err := patch.Encode(&bytes.Buffer{}, patch.Document{}, patch.Format(10))
	assert.True(t, errors.Is(err, patch.ErrUnsupportedFormat))
	_, err = patch.Decode(strings.NewReader(""), patch.Format(10))
	assert.True(t, errors.Is(err, patch.ErrUnsupportedFormat))
}
