// Package schema holds the static description of the dataset that is embedded in
// every translation prompt. The description is never introspected at request time;
// Verify exists only so an operator can detect drift between the text and the file.
package schema

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column is one column of a table.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Table is one table with its columns in declaration order.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// Schema describes the dataset.
type Schema struct {
	Tables []Table `yaml:"tables"`
}

// flightColumns lists the flights table in source order. Every column is TEXT.
var flightColumns = []string{
	"YEAR", "MONTH", "DAY", "DAY_OF_WEEK", "AIRLINE", "FLIGHT_NUMBER", "TAIL_NUMBER",
	"ORIGIN_AIRPORT", "DESTINATION_AIRPORT", "SCHEDULED_DEPARTURE", "DEPARTURE_TIME",
	"DEPARTURE_DELAY", "TAXI_OUT", "WHEELS_OFF", "SCHEDULED_TIME", "ELAPSED_TIME",
	"AIR_TIME", "DISTANCE", "WHEELS_ON", "TAXI_IN", "SCHEDULED_ARRIVAL", "ARRIVAL_TIME",
	"ARRIVAL_DELAY", "DIVERTED", "CANCELLED", "CANCELLATION_REASON", "AIR_SYSTEM_DELAY",
	"SECURITY_DELAY", "AIRLINE_DELAY", "LATE_AIRCRAFT_DELAY", "WEATHER_DELAY",
}

// Default returns the airline dataset description.
func Default() *Schema {
	return &Schema{
		Tables: []Table{
			textTable("airlines", "IATA_CODE", "AIRLINE"),
			textTable("airports", "IATA_CODE", "AIRPORT"),
			textTable("flights", flightColumns...),
		},
	}
}

func textTable(name string, columns ...string) Table {
	t := Table{Name: name, Columns: make([]Column, len(columns))}
	for i, c := range columns {
		t.Columns[i] = Column{Name: c, Type: "TEXT"}
	}
	return t
}

// LoadFile reads a YAML schema description.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load returns the schema at path, or Default when path is empty.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

func (s *Schema) validate() error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("schema has no tables")
	}
	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("schema table without a name")
		}
		if seen[strings.ToLower(t.Name)] {
			return fmt.Errorf("duplicate table %q", t.Name)
		}
		seen[strings.ToLower(t.Name)] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %q has no columns", t.Name)
		}
	}
	return nil
}

// Table returns the named table (case-insensitive).
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}

// Describe renders the text block embedded in translation prompts.
func (s *Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "- Table: %s\n", t.Name)
		for _, c := range t.Columns {
			typ := c.Type
			if typ == "" {
				typ = "TEXT"
			}
			fmt.Fprintf(&b, "  - %s (%s)\n", c.Name, typ)
		}
	}
	return b.String()
}

// =============================================================================
// DRIFT DETECTION
// =============================================================================

// Inspector reports the columns a table actually has in the dataset.
// It returns an empty slice for a table that does not exist.
type Inspector interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
}

// Drift describes one mismatch between the description and the dataset.
type Drift struct {
	Table   string
	Column  string // empty when the whole table is missing
	Problem string // "missing_table", "missing_column", "undescribed_column"
}

func (d Drift) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: %s", d.Table, d.Problem)
	}
	return fmt.Sprintf("%s.%s: %s", d.Table, d.Column, d.Problem)
}

// Verify compares the description against the dataset. A nil slice means no drift.
func (s *Schema) Verify(ctx context.Context, inspector Inspector) ([]Drift, error) {
	var drifts []Drift
	for _, t := range s.Tables {
		actual, err := inspector.TableColumns(ctx, t.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", t.Name, err)
		}
		if len(actual) == 0 {
			drifts = append(drifts, Drift{Table: t.Name, Problem: "missing_table"})
			continue
		}

		have := make(map[string]bool, len(actual))
		for _, c := range actual {
			have[strings.ToUpper(c)] = true
		}
		described := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			described[strings.ToUpper(c.Name)] = true
			if !have[strings.ToUpper(c.Name)] {
				drifts = append(drifts, Drift{Table: t.Name, Column: c.Name, Problem: "missing_column"})
			}
		}

		var extra []string
		for _, c := range actual {
			if !described[strings.ToUpper(c)] {
				extra = append(extra, c)
			}
		}
		sort.Strings(extra)
		for _, c := range extra {
			drifts = append(drifts, Drift{Table: t.Name, Column: c, Problem: "undescribed_column"})
		}
	}
	return drifts, nil
}
