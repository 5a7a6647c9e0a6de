package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"attendance-kiosk/internal/storage"
)

// Known header names for roster CSV exports, by language.
type csvDefinition struct {
	BadgeField    string
	NameField     string
	UnitField     string
	PositionField string
	Language      string
}

var csvDefinitions = []csvDefinition{
	{
		BadgeField:    "BADGE ID",
		NameField:     "FULL NAME",
		UnitField:     "BUSINESS UNIT",
		PositionField: "POSITION",
		Language:      "en",
	},
	{
		BadgeField:    "EMPLOYEE ID",
		NameField:     "NAME",
		UnitField:     "DEPARTMENT",
		PositionField: "TITLE",
		Language:      "alt",
	},
}

// loadCSV parses a tab-separated roster export. HR tools export UTF-16 with
// a BOM; detect it and decode accordingly.
func loadCSV(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster CSV: %w", err)
	}
	defer f.Close()

	bom := make([]byte, 2)
	n, err := f.Read(bom)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	var reader *csv.Reader
	if n == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		// UTF-16 BOM detected
		utf16bom := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		utf16Reader := transform.NewReader(io.MultiReader(
			// Prepend BOM bytes back to stream
			strings.NewReader(string(bom)),
			f,
		), utf16bom)
		reader = csv.NewReader(utf16Reader)
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek file: %w", err)
		}
		reader = csv.NewReader(f)
	}

	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = 0

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster CSV header: %w", err)
	}

	idxBadge, idxName, idxUnit, idxPosition := -1, -1, -1, -1
	for _, def := range csvDefinitions {
		idxBadge, idxName, idxUnit, idxPosition = -1, -1, -1, -1
		for i, h := range headers {
			switch strings.ToUpper(strings.TrimSpace(h)) {
			case def.BadgeField:
				idxBadge = i
			case def.NameField:
				idxName = i
			case def.UnitField:
				idxUnit = i
			case def.PositionField:
				idxPosition = i
			}
		}
		if idxBadge != -1 && idxName != -1 {
			break
		}
	}
	if idxBadge == -1 || idxName == -1 {
		return nil, fmt.Errorf("roster CSV header not recognized: %v", headers)
	}

	r := &Roster{entries: make(map[string]storage.Identity)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading roster CSV: %w", err)
		}

		badge := strings.TrimSpace(record[idxBadge])
		if badge == "" {
			continue
		}

		ident := storage.Identity{FullName: strings.TrimSpace(record[idxName])}
		if idxUnit != -1 && idxUnit < len(record) {
			ident.BusinessUnit = strings.TrimSpace(record[idxUnit])
		}
		if idxPosition != -1 && idxPosition < len(record) {
			ident.Position = strings.TrimSpace(record[idxPosition])
		}
		r.entries[badge] = ident
	}

	return r, nil
}
