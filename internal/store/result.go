package store

// Field is one named cell of a record.
type Field struct {
	Name  string
	Value interface{}
}

// Record maps column names to cell values, keeping the query's column order.
type Record struct {
	Fields []Field
}

// Get returns the value of the named column.
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the column names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Name
	}
	return keys
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// ResultSet is the ordered outcome of one successfully executed query.
// Records is never nil; zero matching rows is an empty slice.
type ResultSet struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// Empty reports whether the query matched no rows.
func (rs *ResultSet) Empty() bool {
	return rs.Len() == 0
}
