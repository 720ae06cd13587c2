// Package companyid is a diagnostic-only directory mapping a Bluetooth SIG
// manufacturer-data company identifier to a vendor name. It never
// influences decoder selection; it exists solely so a device whose
// manufacturer data no registered decoder recognizes can be logged with a
// readable vendor name instead of a bare company ID.
package companyid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// builtin holds the identifiers seen across the reference corpus's
// advertising dumps. Ruuvi Innovations is the one this collector actually
// decodes; the rest only improve the diagnostic log line.
var builtin = map[uint16]string{
	0x0499: "Ruuvi Innovations",
	0x004C: "Apple",
	0x00E0: "Google",
	0x02E5: "Espressif",
}

// Directory resolves a company ID to a vendor name, built-in entries
// optionally overlaid by a user-supplied YAML file.
type Directory struct {
	names map[uint16]string
}

// overlayFile mirrors a companydb YAML document:
//
//	companies:
//	  - id: 0x1234
//	    name: Some Vendor
type overlayFile struct {
	Companies []overlayEntry `yaml:"companies"`
}

type overlayEntry struct {
	ID   uint16 `yaml:"id"`
	Name string `yaml:"name"`
}

// Load builds a Directory from the built-in table, optionally overlaid by
// the YAML file at path. An empty path is not an error: companyDB is
// always optional. A path that doesn't parse is reported, but
// the caller may choose to log and continue rather than treat it as fatal,
// since this directory is diagnostic only.
func Load(path string) (*Directory, error) {
	dir := &Directory{names: make(map[uint16]string, len(builtin))}
	for id, name := range builtin {
		dir.names[id] = name
	}

	if path == "" {
		return dir, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return dir, fmt.Errorf("companyid: cannot open companydb %s: %w", path, err)
	}
	var f overlayFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return dir, fmt.Errorf("companyid: invalid YAML in companydb %s: %w", path, err)
	}
	for _, e := range f.Companies {
		if e.Name == "" {
			continue
		}
		dir.names[e.ID] = e.Name
	}
	return dir, nil
}

// Name returns the vendor name for id, or a placeholder for an id this
// directory doesn't recognize.
func (d *Directory) Name(id uint16) string {
	if d == nil {
		return fmt.Sprintf("unknown (0x%04X)", id)
	}
	if name, ok := d.names[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%04X)", id)
}
