package assets_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/atlas/engine/assets"
)

// recordLogger captures warnings so tests can assert on tolerant-decode
// diagnostics.
type recordLogger struct {
	warns []string
}

func (l *recordLogger) Debugf(format string, args ...interface{}) {}
func (l *recordLogger) Infof(format string, args ...interface{})  {}
func (l *recordLogger) Errorf(format string, args ...interface{}) {}

func (l *recordLogger) Warnf(format string, args ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func TestDocAccessorsAndDefaults(t *testing.T) {
	src := []byte(`
shader = "shaders/phong.shd"
shininess = 12.5
layer = 3
backface_culling = false
color = [0.5, 0.25, 1.0]
defines = ["ALPHA_CUTOUT"]
`)
	log := &recordLogger{}
	doc, err := assets.DecodeDoc("materials/test.mat", src, log)
	require.NoError(t, err)

	assert.Equal(t, "shaders/phong.shd", doc.String("shader", ""))
	assert.Equal(t, 12.5, doc.Float("shininess", 0))
	assert.Equal(t, int64(3), doc.Int("layer", 0))
	assert.False(t, doc.Bool("backface_culling", true))
	assert.Equal(t, []float64{0.5, 0.25, 1.0}, doc.Floats("color", nil))
	assert.Equal(t, []string{"ALPHA_CUTOUT"}, doc.Strings("defines"))

	// Missing labels fall back to the caller's default.
	assert.Equal(t, 0.3, doc.Float("alpha_ref", 0.3))
	assert.True(t, doc.Bool("ztest", true))
	assert.Empty(t, log.warns)
}

func TestDocIntegersReadAsFloats(t *testing.T) {
	doc, err := assets.DecodeDoc("t", []byte("shininess = 4\ncolor = [1, 0, 0]"), &recordLogger{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, doc.Float("shininess", 0))
	assert.Equal(t, []float64{1, 0, 0}, doc.Floats("color", nil))
}

func TestDocWrongTypeFallsBackWithWarning(t *testing.T) {
	log := &recordLogger{}
	doc, err := assets.DecodeDoc("materials/bad.mat", []byte(`shininess = "hot"`), log)
	require.NoError(t, err)

	assert.Equal(t, 7.0, doc.Float("shininess", 7.0))
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "shininess")
	assert.Contains(t, log.warns[0], "using default")
}

func TestDocWarnUnknownReportsUnconsumedLabels(t *testing.T) {
	src := []byte(`
shader = "s"
volumetric_fog = true
anisotropy = 0.5
`)
	log := &recordLogger{}
	doc, err := assets.DecodeDoc("materials/future.mat", src, log)
	require.NoError(t, err)

	doc.String("shader", "")
	doc.WarnUnknown()

	// Sorted, one warning per unknown label.
	require.Len(t, log.warns, 2)
	assert.Contains(t, log.warns[0], `unknown label "anisotropy"`)
	assert.Contains(t, log.warns[1], `unknown label "volumetric_fog"`)
}

func TestDocTables(t *testing.T) {
	src := []byte(`
[[textures]]
source = "textures/albedo.tex"
srgb = true

[[textures]]
source = "textures/normal.tex"
`)
	log := &recordLogger{}
	doc, err := assets.DecodeDoc("materials/tex.mat", src, log)
	require.NoError(t, err)

	tables := doc.Tables("textures")
	require.Len(t, tables, 2)
	assert.Equal(t, "textures/albedo.tex", tables[0].String("source", ""))
	assert.True(t, tables[0].Bool("srgb", false))
	assert.Equal(t, "textures/normal.tex", tables[1].String("source", ""))
	assert.False(t, tables[1].Bool("srgb", false))

	doc.WarnUnknown()
	for _, child := range tables {
		child.WarnUnknown()
	}
	assert.Empty(t, log.warns)
}

func TestDecodeDocRejectsMalformedInput(t *testing.T) {
	_, err := assets.DecodeDoc("broken", []byte("= = ="), &recordLogger{})
	assert.Error(t, err)
}

func TestDocBuilderRoundTrip(t *testing.T) {
	data, err := assets.NewDocBuilder().
		Set("shader", "shaders/phong.shd").
		Set("shininess", 9.0).
		Encode()
	require.NoError(t, err)

	doc, err := assets.DecodeDoc("rt", data, &recordLogger{})
	require.NoError(t, err)
	assert.Equal(t, "shaders/phong.shd", doc.String("shader", ""))
	assert.Equal(t, 9.0, doc.Float("shininess", 0))
}
