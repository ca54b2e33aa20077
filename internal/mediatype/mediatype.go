// Package mediatype derives MIME content types from filenames.
package mediatype

import "strings"

// byExtension is the fixed extension to MIME type table.
var byExtension = map[string]string{
	"csv":     "text/csv",
	"json":    "application/json",
	"parquet": "application/parquet",
	"txt":     "text/plain",
	"xml":     "application/xml",
	"xls":     "application/vnd.ms-excel",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// compressionSuffixes are seen through, so compressed variants of an
// extension map to the same type.
var compressionSuffixes = map[string]bool{
	"gz":  true,
	"bz2": true,
	"zip": true,
}

// FromFilename returns the MIME type for a filename's extension, or "" when
// the extension is unknown. Matching is case-insensitive.
func FromFilename(name string) string {
	parts := strings.Split(strings.ToLower(name), ".")
	for len(parts) > 2 && compressionSuffixes[parts[len(parts)-1]] {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return ""
	}
	return byExtension[parts[len(parts)-1]]
}
