package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Canonical import fields. Each maps to one leads column.
const (
	fieldParentsName   = "parents_name"
	fieldKidsName      = "kids_name"
	fieldPhone         = "phone"
	fieldSecondPhone   = "second_phone"
	fieldEmail         = "email"
	fieldLocation      = "location"
	fieldGrade         = "grade"
	fieldSource        = "source"
	fieldCounsellor    = "counsellor"
	fieldOccupation    = "occupation"
	fieldCurrentSchool = "current_school"
	fieldNotes         = "notes"
	fieldOffer         = "offer"
)

// headerSynonyms maps normalized header spellings to canonical fields.
// Headers are matched case-insensitively with all non-alphanumerics stripped,
// so "Parents Name", "parent_name" and "ParentsName" all land on the same
// field.
var headerSynonyms = map[string]string{
	"parentsname":   fieldParentsName,
	"parentname":    fieldParentsName,
	"parent":        fieldParentsName,
	"fathersname":   fieldParentsName,
	"kidsname":      fieldKidsName,
	"kidname":       fieldKidsName,
	"childname":     fieldKidsName,
	"childsname":    fieldKidsName,
	"studentname":   fieldKidsName,
	"phone":         fieldPhone,
	"phonenumber":   fieldPhone,
	"mobile":        fieldPhone,
	"mobilenumber":  fieldPhone,
	"contact":       fieldPhone,
	"contactnumber": fieldPhone,
	"secondphone":   fieldSecondPhone,
	"altphone":      fieldSecondPhone,
	"alternatephone": fieldSecondPhone,
	"email":          fieldEmail,
	"emailid":        fieldEmail,
	"emailaddress":   fieldEmail,
	"location":       fieldLocation,
	"city":           fieldLocation,
	"area":           fieldLocation,
	"address":        fieldLocation,
	"grade":          fieldGrade,
	"class":          fieldGrade,
	"standard":       fieldGrade,
	"source":         fieldSource,
	"leadsource":     fieldSource,
	"counsellor":     fieldCounsellor,
	"counselor":      fieldCounsellor,
	"occupation":     fieldOccupation,
	"profession":     fieldOccupation,
	"currentschool":  fieldCurrentSchool,
	"school":         fieldCurrentSchool,
	"notes":          fieldNotes,
	"remarks":        fieldNotes,
	"comments":       fieldNotes,
	"offer":          fieldOffer,
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapHeaders resolves the header row to canonical fields by column index.
// Unrecognized columns are ignored.
func mapHeaders(headers []string) map[int]string {
	out := make(map[int]string, len(headers))
	for i, h := range headers {
		if field, ok := headerSynonyms[normalizeHeader(h)]; ok {
			if _, taken := indexOf(out, field); !taken {
				out[i] = field
			}
		}
	}
	return out
}

func indexOf(m map[int]string, field string) (int, bool) {
	for i, f := range m {
		if f == field {
			return i, true
		}
	}
	return 0, false
}

// parseFile extracts all rows, header first, from a CSV or Excel upload. The
// format is chosen by file extension; Excel reads the first sheet only.
func parseFile(fileName string, data []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return parseCSV(data)
	case ".xlsx", ".xls":
		return parseExcel(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(fileName))
	}
}

func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
