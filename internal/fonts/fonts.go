package fonts

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps a font family name to a font file under a fonts directory.
// A miss falls back to the configured default file, so rendering never stalls
// on a missing font.
type Resolver struct {
	dir         string
	defaultFile string
}

func NewResolver(dir, defaultFile string) *Resolver {
	return &Resolver{dir: dir, defaultFile: defaultFile}
}

// Resolve returns the font file for a family name. Matching is
// case-insensitive against file names with spaces/hyphens collapsed, e.g.
// "Noto Sans" matches NotoSans-Bold.ttf.
func (r *Resolver) Resolve(family string) (string, bool) {
	if family == "" {
		return r.defaultFile, false
	}

	want := normalizeFamily(family)

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		log.Printf("[Fonts] cannot read fonts dir %s, using default: %v", r.dir, err)
		return r.defaultFile, false
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		if strings.HasPrefix(normalizeFamily(strings.TrimSuffix(name, ext)), want) {
			return filepath.Join(r.dir, name), true
		}
	}

	log.Printf("[Fonts] no match for %q, using default", family)
	return r.defaultFile, false
}

// Default returns the fallback font file.
func (r *Resolver) Default() string {
	return r.defaultFile
}

func normalizeFamily(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}
