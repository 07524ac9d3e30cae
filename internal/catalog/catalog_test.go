package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	require.Len(t, c.Groups, 6)
	assert.Equal(t, 12, c.TrialCount())

	g, ok := c.Group("MCND")
	require.True(t, ok)
	assert.Equal(t, "Mixed Color + No Distortion", g.Label)
	assert.Equal(t, ColorMixed, g.Color)
	assert.Equal(t, "No Distortion", g.Distortion)
	assert.Equal(t, []string{"R5UM", "X4GE", "H2KD", "P7CQ", "6TVA", "D8YR"}, g.Codes)

	g, ok = c.Group("NCCD")
	require.True(t, ok)
	assert.Equal(t, ColorSingle, g.Color)
	assert.Equal(t, "Complex Distortion", g.Distortion)

	_, ok = c.Group("XXXX")
	assert.False(t, ok)
}

func TestImageName(t *testing.T) {
	g := Group{Tag: "NCSD", Images: 6}
	assert.Equal(t, "NCSD1.jpg", g.ImageName(1))
	assert.Equal(t, "NCSD6.jpg", g.ImageName(6))
}

func TestValidImage(t *testing.T) {
	c := Default()
	cases := map[string]bool{
		"MCND1.jpg":       true,
		"NCCD6.jpg":       true,
		"NCCD7.jpg":       false,
		"NCCD0.jpg":       false,
		"ABCD1.jpg":       false,
		"MCND1.png":       false,
		"../MCND1.jpg":    false,
		"mcnd1.jpg":       false,
		"MCND1.jpg/extra": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, c.ValidImage(name), name)
	}
}

func TestParseRejectsInsufficientImages(t *testing.T) {
	_, err := Parse([]byte(`
groups:
  - tag: MCND
    label: x
    color: Mixed
    distortion: No Distortion
    images: 1
    codes: [R5UM]
`))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "need at least 2")
}

func TestParseRejectsBadGroups(t *testing.T) {
	cases := map[string]string{
		"empty":     `groups: []`,
		"short tag": "groups:\n  - {tag: MCN, color: Mixed, images: 6, codes: [A]}",
		"duplicate": "groups:\n  - {tag: MCND, color: Mixed, images: 6, codes: [A]}\n  - {tag: MCND, color: Mixed, images: 6, codes: [B]}",
		"no codes":  "groups:\n  - {tag: MCND, color: Mixed, images: 6, codes: []}",
		"color":     "groups:\n  - {tag: MCND, color: Blue, images: 6, codes: [A]}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("groups: [::"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog")
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Groups, 6)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
groups:
  - tag: MCND
    label: Mixed Color + No Distortion
    color: Mixed
    distortion: No Distortion
    images: 3
    codes: [R5UM, X4GE, H2KD]
`), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.TrialCount())
	assert.True(t, c.ValidImage("MCND3.jpg"))
	assert.False(t, c.ValidImage("MCND4.jpg"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
