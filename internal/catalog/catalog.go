// Package catalog describes the experimental groups of the survey: which
// color and distortion condition each group tag stands for, which codes its
// images show and how many images it has in the asset store.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	TagLength    = 4
	TrialsPerTag = 2
	imageExt     = ".jpg"
)

const (
	ColorMixed  = "Mixed"
	ColorSingle = "Single"
)

var ErrInvalid = errors.New("invalid catalog")

var imageNameRe = regexp.MustCompile(`^([A-Z0-9]{4})([1-9][0-9]*)\.jpg$`)

// Group is one color x distortion condition.
type Group struct {
	Tag        string   `yaml:"tag" json:"tag"`
	Label      string   `yaml:"label" json:"label"`
	Color      string   `yaml:"color" json:"color"`
	Distortion string   `yaml:"distortion" json:"distortion"`
	Images     int      `yaml:"images" json:"images"`
	Codes      []string `yaml:"codes" json:"codes"`
}

// ImageName returns the asset name of the n-th (1-based) image of the group.
func (g Group) ImageName(n int) string {
	return g.Tag + strconv.Itoa(n) + imageExt
}

type Catalog struct {
	Groups []Group `yaml:"groups"`
	byTag  map[string]int
}

// Default returns the embedded catalog used by the original survey.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path yields the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

// Validate checks the preconditions of trial generation. A catalog that
// fails here cannot run a survey.
func (c *Catalog) Validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("%w: no groups", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if len(g.Tag) != TagLength {
			return fmt.Errorf("%w: tag %q must be %d characters", ErrInvalid, g.Tag, TagLength)
		}
		if seen[g.Tag] {
			return fmt.Errorf("%w: duplicate tag %q", ErrInvalid, g.Tag)
		}
		seen[g.Tag] = true
		if g.Images < TrialsPerTag {
			return fmt.Errorf("%w: group %s has %d images, need at least %d", ErrInvalid, g.Tag, g.Images, TrialsPerTag)
		}
		if g.Color != ColorMixed && g.Color != ColorSingle {
			return fmt.Errorf("%w: group %s has unknown color %q", ErrInvalid, g.Tag, g.Color)
		}
		if len(g.Codes) == 0 {
			return fmt.Errorf("%w: group %s has no valid codes", ErrInvalid, g.Tag)
		}
	}
	return nil
}

func (c *Catalog) index() {
	c.byTag = make(map[string]int, len(c.Groups))
	for i, g := range c.Groups {
		c.byTag[g.Tag] = i
	}
}

// Group looks up a group by tag.
func (c *Catalog) Group(tag string) (Group, bool) {
	if c.byTag == nil {
		for _, g := range c.Groups {
			if g.Tag == tag {
				return g, true
			}
		}
		return Group{}, false
	}
	i, ok := c.byTag[tag]
	if !ok {
		return Group{}, false
	}
	return c.Groups[i], true
}

// TrialCount is the length of every generated trial list.
func (c *Catalog) TrialCount() int {
	return TrialsPerTag * len(c.Groups)
}

// ValidImage reports whether name is an image the catalog can serve.
func (c *Catalog) ValidImage(name string) bool {
	m := imageNameRe.FindStringSubmatch(name)
	if m == nil {
		return false
	}
	g, ok := c.Group(m[1])
	if !ok {
		return false
	}
	n, err := strconv.Atoi(m[2])
	return err == nil && n >= 1 && n <= g.Images
}
