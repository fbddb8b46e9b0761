package packarchive

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/worldiety/packfs/internal/packerr"
)

// ManifestName is the fixed archive pathname of the manifest entry. It is
// always the first entry written and the first entry read, so a Reader
// never has to scan ahead to learn what it is looking at.
const ManifestName = "pack.manifest"

// Manifest is the small key/value header describing the pack as a whole,
// written as an INI-style "[pack]" section ahead of every payload entry.
type Manifest struct {
	Name        string
	Description string
	EntryCount  int
	Filter      Filter
}

// Encode renders the manifest in its on-disk "[pack]" key/value form.
func (m Manifest) Encode() []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "[pack]")
	fmt.Fprintf(&buf, "name=%s\n", m.Name)
	fmt.Fprintf(&buf, "description=%s\n", m.Description)
	fmt.Fprintf(&buf, "entries=%d\n", m.EntryCount)
	fmt.Fprintf(&buf, "filter=%c\n", rune(m.Filter))
	return buf.Bytes()
}

// DecodeManifest parses the "[pack]" section produced by Encode. An
// unrecognized leading section name or an unparseable entries count is a
// Scan error: the reader has a manifest-shaped file that does not honor
// the format this library writes.
func DecodeManifest(raw []byte) (Manifest, error) {
	var m Manifest
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sawSection := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if line != "[pack]" {
				return Manifest{}, packerr.Scan("unrecognized manifest section "+line, nil)
			}
			sawSection = true
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Manifest{}, packerr.Scan("malformed manifest line "+line, nil)
		}
		switch key {
		case "name":
			m.Name = value
		case "description":
			m.Description = value
		case "entries":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Manifest{}, packerr.Scan("non-numeric entries field", err)
			}
			m.EntryCount = n
		case "filter":
			if len(value) != 1 {
				return Manifest{}, packerr.Scan("malformed filter field", nil)
			}
			m.Filter = Filter(value[0])
		}
	}
	if err := sc.Err(); err != nil {
		return Manifest{}, packerr.Scan("manifest scan failed", err)
	}
	if !sawSection {
		return Manifest{}, packerr.Scan("missing [pack] section", nil)
	}
	return m, nil
}
