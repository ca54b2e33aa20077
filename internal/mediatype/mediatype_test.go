package mediatype

import "testing"

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{
			name:     "csv",
			filename: "a.csv",
			expected: "text/csv",
		},
		{
			name:     "uppercase extension",
			filename: "REPORT.CSV",
			expected: "text/csv",
		},
		{
			name:     "compressed parquet keeps base type",
			filename: "a.PARQUET.gz",
			expected: "application/parquet",
		},
		{
			name:     "json",
			filename: "data.json",
			expected: "application/json",
		},
		{
			name:     "bzip2 wrapped json",
			filename: "data.json.bz2",
			expected: "application/json",
		},
		{
			name:     "spreadsheet",
			filename: "numbers.xlsx",
			expected: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		{
			name:     "unknown extension",
			filename: "blob.bin",
			expected: "",
		},
		{
			name:     "bare gz has no underlying extension",
			filename: "a.gz",
			expected: "",
		},
		{
			name:     "no extension",
			filename: "README",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromFilename(tt.filename)
			if got != tt.expected {
				t.Errorf("FromFilename(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}
