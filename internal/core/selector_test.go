package core

import (
	"errors"
	"testing"
)

func TestSelectParser(t *testing.T) {
	tests := []struct {
		fileName string
		wantCSV  bool
		wantErr  error
	}{
		{fileName: "awards.csv", wantCSV: true},
		{fileName: "AWARDS.CSV", wantCSV: true},
		{fileName: "q1.awards.xlsx"},
		{fileName: "legacy.XLS"},
		{fileName: "data.txt", wantErr: ErrUnsupportedFormat},
		{fileName: "awards.csv.bak", wantErr: ErrUnsupportedFormat},
		{fileName: "awards", wantErr: ErrMissingExtension},
		{fileName: ".csv", wantErr: ErrMissingExtension},
		{fileName: "awards.", wantErr: ErrMissingExtension},
		{fileName: "", wantErr: ErrMissingExtension},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			p, err := SelectParser(tt.fileName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SelectParser(%q) error = %v, want %v", tt.fileName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectParser(%q) error = %v", tt.fileName, err)
			}

			_, isCSV := p.(*CSVParser)
			_, isSheet := p.(*SheetParser)
			if isCSV != tt.wantCSV || isSheet == tt.wantCSV {
				t.Errorf("SelectParser(%q) = %T", tt.fileName, p)
			}
		})
	}
}
