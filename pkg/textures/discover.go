// Package textures finds texture filenames embedded in raw capture data and
// re-encodes texture files for interchange formats.
package textures

import (
	"bytes"
	"strings"

	"github.com/Faultbox/ripconv/pkg/encoding"
)

// DefaultMax is the default number of names Discover returns.
const DefaultMax = 8

// Extensions are the texture file extensions Discover recognizes.
var Extensions = []string{".dds", ".png", ".tga", ".jpg", ".jpeg", ".bmp"}

// maxNameLen bounds the length of a candidate filename.
const maxNameLen = 260

// Discover scans data for runs of printable bytes ending in a texture
// extension and returns up to limit distinct names in order of appearance.
func Discover(data []byte, limit int) []string {
	if limit <= 0 {
		return nil
	}

	var names []string
	seen := make(map[string]bool)

	start := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && encoding.IsPrintable(data[i]) {
			continue
		}
		if run := data[start:i]; len(run) > 0 {
			for _, name := range candidates(run) {
				if seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
				if len(names) == limit {
					return names
				}
			}
		}
		start = i + 1
	}
	return names
}

// candidates extracts texture names from one printable run. A run may hold
// several names separated by printable characters such as spaces.
func candidates(run []byte) []string {
	var out []string
	lower := bytes.ToLower(run)

	from := 0
	for from < len(run) {
		end, ok := nextExtensionEnd(lower, from)
		if !ok {
			break
		}
		name := strings.TrimSpace(string(run[from:end]))
		if name != "" && len(name) <= maxNameLen && !isBareExtension(name) {
			out = append(out, name)
		}
		from = end
	}
	return out
}

// nextExtensionEnd returns the end offset of the earliest extension match
// at or after from. An extension only matches when it is not followed by
// another letter or digit.
func nextExtensionEnd(lower []byte, from int) (int, bool) {
	best := -1
	for _, ext := range Extensions {
		off := from
		for {
			i := bytes.Index(lower[off:], []byte(ext))
			if i < 0 {
				break
			}
			end := off + i + len(ext)
			if end == len(lower) || !isAlnum(lower[end]) {
				if best < 0 || end < best {
					best = end
				}
				break
			}
			off = end
		}
	}
	return best, best >= 0
}

func isBareExtension(name string) bool {
	for _, ext := range Extensions {
		if strings.EqualFold(name, ext) {
			return true
		}
	}
	return false
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
