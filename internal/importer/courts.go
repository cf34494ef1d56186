// Package importer loads the court catalogue from spreadsheet exports.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"

	"github.com/xuri/excelize/v2"
)

const maxFileSize = 10 << 20

// Result is the outcome of parsing a court file
type Result struct {
	Courts  []models.Court
	Skipped []string
}

// LoadCourts reads a .csv or .xlsx court list from path
func LoadCourts(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ParseCSV(f)
	case ".xlsx":
		b, err := io.ReadAll(io.LimitReader(f, maxFileSize))
		if err != nil {
			return nil, err
		}
		return ParseXLSX(b)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// ParseCSV reads comma or semicolon separated rows with a header line
func ParseCSV(r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)
	// Peek the header line to guess the delimiter
	line, _ := br.ReadString('\n')
	reader := csv.NewReader(io.MultiReader(strings.NewReader(line), br))
	reader.FieldsPerRecord = -1
	if strings.Count(line, ";") > strings.Count(line, ",") {
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	return parseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook
func ParseXLSX(b []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheet")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Result, error) {
	headers := normHeaders(rows[0])
	for _, required := range []string{"name", "latitude", "longitude"} {
		if _, ok := headers[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	res := &Result{}
	seen := make(map[string]bool)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		court, err := rowToCourt(headers, row)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		// Court names are unique; the last row wins
		if seen[court.Name] {
			for j := range res.Courts {
				if res.Courts[j].Name == court.Name {
					res.Courts[j] = court
				}
			}
			continue
		}
		seen[court.Name] = true
		res.Courts = append(res.Courts, court)
	}
	return res, nil
}

// normHeaders maps canonical column keys to their index
func normHeaders(hdr []string) map[string]int {
	m := make(map[string]int, len(hdr))
	for i, h := range hdr {
		b := strings.Builder{}
		for _, r := range strings.ToLower(strings.TrimSpace(h)) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}

		k := b.String()
		switch k {
		case "name", "courtname", "court", "코트명", "코트", "시설명":
			k = "name"
		case "address", "addr", "주소", "도로명주소":
			k = "address"
		case "latitude", "lat", "위도":
			k = "latitude"
		case "longitude", "lon", "lng", "long", "경도":
			k = "longitude"
		}
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}

func rowToCourt(h map[string]int, row []string) (models.Court, error) {
	get := func(key string) string {
		if i, ok := h[key]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := get("name")
	if name == "" {
		return models.Court{}, fmt.Errorf("name is empty")
	}
	lat, err := strconv.ParseFloat(get("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.Court{}, fmt.Errorf("invalid latitude %q", get("latitude"))
	}
	lon, err := strconv.ParseFloat(get("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return models.Court{}, fmt.Errorf("invalid longitude %q", get("longitude"))
	}

	return models.Court{
		Name:      name,
		Address:   get("address"),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}
