// Package storetest builds small airline datasets for tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"nlsql/internal/schema"
)

// Airlines are the rows loaded into the airlines table.
var Airlines = [][2]string{
	{"UA", "United Air Lines Inc."},
	{"AA", "American Airlines Inc."},
	{"US", "US Airways Inc."},
	{"F9", "Frontier Airlines Inc."},
	{"B6", "JetBlue Airways"},
	{"OO", "Skywest Airlines Inc."},
	{"AS", "Alaska Airlines Inc."},
	{"NK", "Spirit Air Lines"},
	{"WN", "Southwest Airlines Co."},
	{"DL", "Delta Air Lines Inc."},
	{"EV", "Atlantic Southeast Airlines"},
	{"HA", "Hawaiian Airlines Inc."},
	{"MQ", "American Eagle Airlines Inc."},
	{"VX", "Virgin America"},
}

// Airports are the rows loaded into the airports table.
var Airports = [][2]string{
	{"ABE", "Lehigh Valley International Airport"},
	{"ABI", "Abilene Regional Airport"},
	{"ABQ", "Albuquerque International Sunport"},
}

// Flights are loaded into the flights table as (AIRLINE, FLIGHT_NUMBER, ORIGIN, DESTINATION, CANCELLED).
var Flights = [][5]string{
	{"AS", "98", "ANC", "SEA", "0"},
	{"AA", "2336", "LAX", "PBI", "0"},
	{"US", "840", "SFO", "CLT", "0"},
	{"AA", "258", "LAX", "MIA", "1"},
}

// NewDataset writes a fresh dataset file under t.TempDir and returns its path.
// The file matches schema.Default exactly.
func NewDataset(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	for _, table := range schema.Default().Tables {
		ddl := "CREATE TABLE " + table.Name + " ("
		for i, c := range table.Columns {
			if i > 0 {
				ddl += ", "
			}
			ddl += c.Name + " " + c.Type
		}
		ddl += ")"
		mustExec(t, db, ddl)
	}

	for _, a := range Airlines {
		mustExec(t, db, "INSERT INTO airlines (IATA_CODE, AIRLINE) VALUES (?, ?)", a[0], a[1])
	}
	for _, a := range Airports {
		mustExec(t, db, "INSERT INTO airports (IATA_CODE, AIRPORT) VALUES (?, ?)", a[0], a[1])
	}
	for _, f := range Flights {
		mustExec(t, db,
			"INSERT INTO flights (YEAR, MONTH, DAY, AIRLINE, FLIGHT_NUMBER, ORIGIN_AIRPORT, DESTINATION_AIRPORT, CANCELLED) VALUES ('2015', '1', '1', ?, ?, ?, ?, ?)",
			f[0], f[1], f[2], f[3], f[4])
	}

	return path
}

func mustExec(t testing.TB, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("fixture %q: %v", query, err)
	}
}
