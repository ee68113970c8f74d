// Package festival holds the headliner dataset the graphic draws from.
package festival

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Gender codes used by the dataset.
const (
	GenderMale   = "m"
	GenderFemale = "f"
	GenderMixed  = "mixed"
)

// HistogramSince is the first year counted by the histogram view.
const HistogramSince = 2007

//go:embed headliners.yaml
var builtin []byte

// Headliner is one headline act at one festival edition.
type Headliner struct {
	Year     int    `yaml:"year"`
	Festival string `yaml:"festival"`
	Act      string `yaml:"act"`
	Gender   string `yaml:"gender"`
}

// ID is a stable identifier for the act's slot, e.g. "2011-glastonbury-beyonce".
func (h Headliner) ID() string {
	slug := func(s string) string {
		var b strings.Builder
		dash := false
		for _, r := range strings.ToLower(s) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
				dash = false
				continue
			}
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
		return strings.TrimSuffix(b.String(), "-")
	}
	return fmt.Sprintf("%d-%s-%s", h.Year, slug(h.Festival), slug(h.Act))
}

// Dataset is an ordered list of headliners.
type Dataset []Headliner

type datasetFile struct {
	Headliners Dataset `yaml:"headliners"`
}

// Default returns the embedded dataset.
func Default() (Dataset, error) {
	return Parse(builtin)
}

// Load reads a dataset file; an empty path returns the embedded dataset.
func Load(path string) (Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("festival: dataset %s not found", path)
		}
		return nil, fmt.Errorf("festival: read %s: %w", path, err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("festival: %s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates dataset YAML.
func Parse(data []byte) (Dataset, error) {
	var parsed datasetFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("festival: parse dataset: %w", err)
	}
	for i := range parsed.Headliners {
		h := &parsed.Headliners[i]
		h.Festival = strings.TrimSpace(h.Festival)
		h.Act = strings.TrimSpace(h.Act)
		h.Gender = strings.ToLower(strings.TrimSpace(h.Gender))
		if err := h.validate(); err != nil {
			return nil, fmt.Errorf("festival: headliners[%d]: %w", i, err)
		}
	}
	return parsed.Headliners, nil
}

func (h Headliner) validate() error {
	if h.Year <= 0 {
		return fmt.Errorf("year is required")
	}
	if h.Festival == "" {
		return fmt.Errorf("festival is required")
	}
	if h.Act == "" {
		return fmt.Errorf("act is required")
	}
	switch h.Gender {
	case GenderMale, GenderFemale, GenderMixed:
		return nil
	default:
		return fmt.Errorf("gender must be 'm', 'f' or 'mixed'")
	}
}

// Since keeps headliners from year onwards.
func (d Dataset) Since(year int) Dataset {
	return d.filter(func(h Headliner) bool { return h.Year >= year })
}

// WithGender keeps headliners whose gender is one of genders.
func (d Dataset) WithGender(genders ...string) Dataset {
	return d.filter(func(h Headliner) bool {
		for _, g := range genders {
			if h.Gender == g {
				return true
			}
		}
		return false
	})
}

// NotMale keeps female and mixed line-ups.
func (d Dataset) NotMale() Dataset {
	return d.WithGender(GenderFemale, GenderMixed)
}

func (d Dataset) filter(keep func(Headliner) bool) Dataset {
	out := make(Dataset, 0, len(d))
	for _, h := range d {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

// FestivalCount is the number of headline slots at one festival.
type FestivalCount struct {
	Festival string
	Count    int
}

// CountByFestival tallies headliners per festival, largest first, ties by name.
func (d Dataset) CountByFestival() []FestivalCount {
	counts := map[string]int{}
	for _, h := range d {
		counts[h.Festival]++
	}
	out := make([]FestivalCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, FestivalCount{Festival: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Festival < out[j].Festival
	})
	return out
}

// Years returns the first and last year in the dataset.
func (d Dataset) Years() (first, last int) {
	for i, h := range d {
		if i == 0 || h.Year < first {
			first = h.Year
		}
		if h.Year > last {
			last = h.Year
		}
	}
	return first, last
}
