package rawsql

import (
	"encoding/json"
)

// MappingBuilder collects the column mapping for raw sql db columns to bean
// properties
//
// it is the mutable half of the mapping lifecycle - a single logical owner
// builds it up during query definition and then calls Freeze to obtain the
// immutable, shareable ColumnMapping (no internal locking is provided at this
// layer)
type MappingBuilder struct {
	parsed  bool
	columns []*Column
	byDbKey map[string]*Column
}

// NewParsedMapping creates a MappingBuilder from columns already identified
// by parsing the sql select clause
//
// because the columns are known in advance, AddOrSetMapping can only set the
// property name of an existing column - it never appends
func NewParsedMapping(columns []*Column) *MappingBuilder {
	b := &MappingBuilder{
		parsed:  true,
		byDbKey: make(map[string]*Column, len(columns)),
	}
	for _, c := range columns {
		if existing, ok := b.byDbKey[c.dbColumn]; ok {
			// duplicate key keeps its original position (last value wins)
			*existing = *c
			continue
		}
		b.columns = append(b.columns, c)
		b.byDbKey[c.dbColumn] = c
	}
	return b
}

// NewUnparsedMapping creates an empty MappingBuilder for completely unparsed
// sql - AddOrSetMapping appends each column as it is mapped
func NewUnparsedMapping() *MappingBuilder {
	return &MappingBuilder{
		parsed:  false,
		byDbKey: map[string]*Column{},
	}
}

// AddOrSetMapping maps a db column to a bean property
//
// for unparsed mappings the column is appended at the next free position; for
// parsed mappings the existing column is looked up by dbColumn and only its
// property name is updated - an unknown dbColumn returns a LookupError that
// enumerates the known columns
func (b *MappingBuilder) AddOrSetMapping(dbColumn string, propertyName string) error {
	if !b.parsed {
		if existing, ok := b.byDbKey[dbColumn]; ok {
			existing.setPropertyName(propertyName)
			return nil
		}
		c := newColumn(len(b.columns), dbColumn, "", propertyName)
		b.columns = append(b.columns, c)
		b.byDbKey[dbColumn] = c
		return nil
	}
	column, ok := b.byDbKey[dbColumn]
	if !ok {
		return &LookupError{DbColumn: dbColumn, Known: b.dbColumns()}
	}
	column.setPropertyName(propertyName)
	return nil
}

// IsParsed returns whether the columns were supplied by parsing the sql
// select clause
func (b *MappingBuilder) IsParsed() bool {
	return b.parsed
}

// Size returns the number of columns collected so far
func (b *MappingBuilder) Size() int {
	return len(b.columns)
}

// Freeze validates that every column has a property name and returns a new,
// immutable ColumnMapping built from independent copies of the columns
//
// the builder itself is left untouched and still mutable - a failed freeze
// (StateError naming the first offending db column) changes nothing
func (b *MappingBuilder) Freeze() (*ColumnMapping, error) {
	for _, c := range b.columns {
		if err := c.checkMapping(); err != nil {
			return nil, err
		}
	}
	columns := make([]*Column, len(b.columns))
	for i, c := range b.columns {
		columns[i] = c.copy()
	}
	return newColumnMapping(b.parsed, columns), nil
}

func (b *MappingBuilder) dbColumns() []string {
	result := make([]string, len(b.columns))
	for i, c := range b.columns {
		result[i] = c.dbColumn
	}
	return result
}

// ColumnMapping is the immutable column mapping for raw sql db columns to
// bean properties
//
// instances are produced by MappingBuilder.Freeze (or directly by
// NewResultSetMapping for cursor based raw sql) and may be read concurrently
// by any number of query executions without synchronization - this is the
// basis for safe query plan cache sharing
type ColumnMapping struct {
	parsed            bool
	columns           []*Column
	propertyMap       map[string]string
	propertyColumnMap map[string]*Column
	queryHash         uint64
}

// NewResultSetMapping creates an immutable ColumnMapping for result cursor
// use - there is no sql text and no freeze step
//
// each property name is inserted as a column whose dbColumn, alias and
// property name are all that name, at successive positions, and the query
// hash is accumulated incrementally in insertion order
func NewResultSetMapping(propertyNames ...string) *ColumnMapping {
	columns := make([]*Column, len(propertyNames))
	hc := resultSetHashSeed
	for i, prop := range propertyNames {
		columns[i] = newColumn(i, prop, prop, prop)
		hc = foldHash(hc, hashString(prop))
	}
	m := newColumnMapping(false, columns)
	m.queryHash = hc
	return m
}

// newColumnMapping computes the final content hash - an unconditional fold
// over every column's (propertyName, dbColumn) pair in insertion order - and
// builds the derived property lookup maps
func newColumnMapping(parsed bool, columns []*Column) *ColumnMapping {
	hc := columnMappingHashSeed
	propertyMap := make(map[string]string, len(columns))
	propertyColumnMap := make(map[string]*Column, len(columns))
	for _, c := range columns {
		propertyMap[c.propertyName] = c.dbColumn
		propertyColumnMap[c.propertyName] = c
		hc = foldHash(hc, hashString(c.propertyName))
		hc = foldHash(hc, hashString(c.dbColumn))
	}
	return &ColumnMapping{
		parsed:            parsed,
		columns:           columns,
		propertyMap:       propertyMap,
		propertyColumnMap: propertyColumnMap,
		queryHash:         hc,
	}
}

// QueryHash returns the query hash for this column mapping
//
// returns an InvariantError if the stored hash is still the uninitialized
// sentinel (a mapping that was never properly frozen or built)
func (m *ColumnMapping) QueryHash() (uint64, error) {
	if m.queryHash == 0 {
		return 0, newInvariantError("bug: column mapping query hash not initialized")
	}
	return m.queryHash, nil
}

// IsParsed returns whether the columns were supplied by parsing the sql
// select clause
//
// when the columns were parsed, extra checks can be made on the mapping -
// such as whether a mapped column actually exists in the sql
func (m *ColumnMapping) IsParsed() bool {
	return m.parsed
}

// Size returns the number of columns in this mapping
func (m *ColumnMapping) Size() int {
	return len(m.columns)
}

// Mapping returns the property name to db column mapping
//
// the returned map is shared and must not be modified
func (m *ColumnMapping) Mapping() map[string]string {
	return m.propertyMap
}

// IndexPosition returns the zero based column position for the given bean
// property name - or -1 if the property is not mapped
func (m *ColumnMapping) IndexPosition(propertyName string) int {
	if c, ok := m.propertyColumnMap[propertyName]; ok {
		return c.indexPos
	}
	return -1
}

// Columns returns an iterator over the columns in insertion order
//
// the iterator is restartable - ranging over it repeatedly yields the same
// sequence and never mutates the mapping
func (m *ColumnMapping) Columns() func(func(int, *Column) bool) {
	return func(yield func(int, *Column) bool) {
		for i, c := range m.columns {
			if !yield(i, c) {
				return
			}
		}
	}
}

func (m *ColumnMapping) sameShape(other *ColumnMapping) bool {
	if m.parsed != other.parsed || len(m.columns) != len(other.columns) {
		return false
	}
	for i, c := range m.columns {
		o := other.columns[i]
		if c.dbColumn != o.dbColumn || c.propertyName != o.propertyName {
			return false
		}
	}
	return true
}

type columnMappingJson struct {
	Parsed    bool      `json:"parsed"`
	Columns   []*Column `json:"columns"`
	QueryHash uint64    `json:"queryHash"`
}

func (m *ColumnMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnMappingJson{
		Parsed:    m.parsed,
		Columns:   m.columns,
		QueryHash: m.queryHash,
	})
}

func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	var mj columnMappingJson
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	rebuilt := newColumnMapping(mj.Parsed, mj.Columns)
	// the stored hash wins - result set mappings accumulate their hash with a
	// different seed and must round trip exactly
	rebuilt.queryHash = mj.QueryHash
	*m = *rebuilt
	return nil
}
