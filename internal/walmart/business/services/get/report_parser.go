package get

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"gowalmart_seller/internal/walmart/business/models"
)

var zipMagic = []byte("PK\x03\x04")

// parseReport reads a report payload: a ZIP holding one CSV, or a bare CSV.
// Rows go to emit as they are decoded; an emit error stops the parse.
func parseReport(payload []byte, emit EmitFunc) error {
	if !bytes.HasPrefix(payload, zipMagic) {
		return parseCSV(bytes.NewReader(payload), emit)
	}

	archive, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	var file *zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if file == nil || strings.EqualFold(path.Ext(f.Name), ".csv") {
			file = f
		}
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			break
		}
	}
	if file == nil {
		return errors.New("zip has no files")
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer rc.Close()
	return parseCSV(rc, emit)
}

// parseCSV decodes UTF-8 or BOM-marked UTF-16 CSV; a UTF-8 BOM is dropped.
func parseCSV(r io.Reader, emit EmitFunc) error {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for n := 2; ; n++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading row %d: %w", n, err)
		}
		if isBlank(row) {
			continue
		}
		record := make(models.Record, len(header))
		for i, column := range header {
			if column == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record[column] = value
		}
		if err := emit(record); err != nil {
			return err
		}
	}
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
