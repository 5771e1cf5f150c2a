package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/pipeline"
)

// CSV import boundary: counselling exports and catalog dumps arrive as CSV
// with a header row. Malformed rows are skipped and counted, not fatal; the
// bodies publishing these files are not careful about their data.

// readCSV streams rows through a mapping function, returning how many rows
// were skipped.
func readCSV(filename string, mapRow func(record []string) error) (skipped int, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if err := mapRow(record); err != nil {
			skipped++
		}
	}
	return skipped, nil
}

// ReadRawRecords parses a counselling export.
// Columns: College,State,Course,Category,Quota,SourceBody,Level,Year,Round,Rank
// Round may be empty or 0 for year-level rows. Record IDs are assigned by
// file position.
func ReadRawRecords(filename string) ([]pipeline.RawRecord, int, error) {
	var records []pipeline.RawRecord
	nextID := int64(1)

	skipped, err := readCSV(filename, func(record []string) error {
		if len(record) < 10 {
			return fmt.Errorf("insufficient columns: expected 10, got %d", len(record))
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[7]))
		if err != nil {
			return fmt.Errorf("bad year %q: %w", record[7], err)
		}
		round := 0
		if r := strings.TrimSpace(record[8]); r != "" {
			if round, err = strconv.Atoi(r); err != nil {
				return fmt.Errorf("bad round %q: %w", record[8], err)
			}
		}
		rank, err := strconv.Atoi(strings.TrimSpace(record[9]))
		if err != nil || rank < 1 {
			return fmt.Errorf("bad rank %q", record[9])
		}

		records = append(records, pipeline.RawRecord{
			ID:         nextID,
			CollegeRaw: strings.TrimSpace(record[0]),
			State:      strings.TrimSpace(record[1]),
			Course:     strings.TrimSpace(record[2]),
			Category:   strings.TrimSpace(record[3]),
			Quota:      strings.TrimSpace(record[4]),
			SourceBody: strings.TrimSpace(record[5]),
			Level:      strings.TrimSpace(record[6]),
			Year:       year,
			Round:      round,
			Rank:       rank,
		})
		nextID++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return records, skipped, nil
}

// ReadCatalog parses a reference catalog dump.
// Columns: ID,CanonicalName,PreviousName,State,Address
// Institution types are left empty; the index classifies at build time.
func ReadCatalog(filename string) ([]catalog.MasterEntity, int, error) {
	var entities []catalog.MasterEntity

	skipped, err := readCSV(filename, func(record []string) error {
		if len(record) < 5 {
			return fmt.Errorf("insufficient columns: expected 5, got %d", len(record))
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("bad entity id %q: %w", record[0], err)
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			return fmt.Errorf("entity %d has no name", id)
		}

		entities = append(entities, catalog.MasterEntity{
			ID:            id,
			CanonicalName: name,
			PreviousName:  strings.TrimSpace(record[2]),
			State:         strings.TrimSpace(record[3]),
			Address:       strings.TrimSpace(record[4]),
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entities, skipped, nil
}
