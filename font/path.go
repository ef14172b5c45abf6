package font

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathResolver is the platform font-discovery capability: it turns a
// family name into font file bytes. One implementation exists per
// platform mechanism (fontconfig-style directory walk, system catalog,
// registry); the active one is chosen at startup by the configuration
// collaborator.
type PathResolver interface {
	// Resolve returns the font file bytes for the given family.
	// Returns ErrFamilyNotFound (possibly wrapped) when the family
	// cannot be located.
	Resolve(family string) ([]byte, error)

	// Families lists the families this resolver can discover.
	// The list is advisory and may be incomplete.
	Families() []string
}

// DirResolver discovers fonts by walking a list of directories and
// matching file names against the requested family, the way fontconfig
// deployments lay out /usr/share/fonts.
type DirResolver struct {
	dirs []string
}

// DefaultFontDirs returns the conventional font directories for the
// current user.
func DefaultFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, ".fonts"),
		)
	}
	return dirs
}

// NewDirResolver creates a resolver walking the given directories.
// If dirs is empty, DefaultFontDirs is used.
func NewDirResolver(dirs ...string) *DirResolver {
	if len(dirs) == 0 {
		dirs = DefaultFontDirs()
	}
	return &DirResolver{dirs: dirs}
}

// Resolve implements PathResolver.
func (d *DirResolver) Resolve(family string) ([]byte, error) {
	path, err := d.findFile(family)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font: read %s: %w", path, err)
	}
	return data, nil
}

// findFile walks the directories looking for a .ttf or .otf file whose
// name contains the family name (case-insensitive, spaces ignored).
func (d *DirResolver) findFile(family string) (string, error) {
	patterns := []string{
		strings.ReplaceAll(strings.ToLower(family), " ", ""),
		strings.ToLower(family),
	}

	var found string
	for _, dir := range d.dirs {
		if found != "" {
			break
		}
		_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil //nolint:nilerr // unreadable entries are skipped, not fatal
			}
			name := strings.ToLower(entry.Name())
			if !strings.HasSuffix(name, ".ttf") && !strings.HasSuffix(name, ".otf") {
				return nil
			}
			for _, p := range patterns {
				if strings.Contains(name, p) {
					found = path
					return fs.SkipAll
				}
			}
			return nil
		})
	}

	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrFamilyNotFound, family)
	}
	return found, nil
}

// Families implements PathResolver. It reports the base names of the
// font files visible to this resolver.
func (d *DirResolver) Families() []string {
	seen := make(map[string]struct{})
	for _, dir := range d.dirs {
		_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil //nolint:nilerr
			}
			name := entry.Name()
			lower := strings.ToLower(name)
			if strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf") {
				seen[strings.TrimSuffix(name, filepath.Ext(name))] = struct{}{}
			}
			return nil
		})
	}

	families := make([]string, 0, len(seen))
	for f := range seen {
		families = append(families, f)
	}
	sort.Strings(families)
	return families
}

// StaticResolver serves font bytes from an in-memory map. It backs
// tests and configurations where the discovery collaborator hands in
// already-read font files.
type StaticResolver struct {
	fonts map[string][]byte
}

// NewStaticResolver creates a resolver over the given family to bytes map.
func NewStaticResolver(fonts map[string][]byte) *StaticResolver {
	if fonts == nil {
		fonts = make(map[string][]byte)
	}
	return &StaticResolver{fonts: fonts}
}

// Add registers font bytes under a family name.
func (s *StaticResolver) Add(family string, data []byte) {
	s.fonts[family] = data
}

// Resolve implements PathResolver.
func (s *StaticResolver) Resolve(family string) ([]byte, error) {
	if data, ok := s.fonts[family]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, family)
}

// Families implements PathResolver.
func (s *StaticResolver) Families() []string {
	families := make([]string, 0, len(s.fonts))
	for f := range s.fonts {
		families = append(families, f)
	}
	sort.Strings(families)
	return families
}
