package rawsql

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// RawSql is used to build object graphs based on a raw sql statement (rather
// than sql generated by the query engine)
//
// a RawSql is either text based - wrapping a Sql (unparsed or broken into
// fragments) plus a frozen ColumnMapping - or cursor based, wrapping an
// already open *sql.Rows whose columns map positionally to bean properties
//
// it is constructed once per query invocation; its query hash keys the query
// plan cache (see PlanCache) - two RawSql values are interchangeable as cache
// hits only when both the sql and the column mapping agree
type RawSql struct {
	rows          *sql.Rows
	sql           *Sql
	columnMapping *ColumnMapping
}

// NewRawSql creates a text based RawSql from a Sql and a frozen ColumnMapping
func NewRawSql(s *Sql, columnMapping *ColumnMapping) *RawSql {
	return &RawSql{
		sql:           s,
		columnMapping: columnMapping,
	}
}

// NewCursorRawSql creates a cursor based RawSql from an already open
// *sql.Rows and the bean properties its columns map to (in column order)
//
// ownership of the cursor transfers to the RawSql - consuming it via ReadRows
// or Iterate releases it exactly once, whether reading succeeds or fails
func NewCursorRawSql(rows *sql.Rows, propertyNames ...string) *RawSql {
	return &RawSql{
		rows:          rows,
		columnMapping: NewResultSetMapping(propertyNames...),
	}
}

// Sql returns the sql (nil for cursor based RawSql)
func (r *RawSql) Sql() *Sql {
	return r.sql
}

// Rows returns the result cursor (nil for text based RawSql)
func (r *RawSql) Rows() *sql.Rows {
	return r.rows
}

// ColumnMapping returns the mapping of sql result columns to bean properties
func (r *RawSql) ColumnMapping() *ColumnMapping {
	return r.columnMapping
}

// QueryHash returns the hash for this query - the plan cache key
func (r *RawSql) QueryHash() (uint64, error) {
	mh, err := r.columnMapping.QueryHash()
	if err != nil {
		return 0, err
	}
	if r.rows != nil {
		return 31 * mh, nil
	}
	return 31*r.sql.QueryHash() + mh, nil
}

func (r *RawSql) sameShape(other *RawSql) bool {
	if (r.sql == nil) != (other.sql == nil) {
		return false
	}
	if r.sql != nil && !r.sql.sameShape(other.sql) {
		return false
	}
	return r.columnMapping.sameShape(other.columnMapping)
}

type rawSqlJson struct {
	Sql           *Sql           `json:"sql,omitempty"`
	ColumnMapping *ColumnMapping `json:"columnMapping"`
}

func (r *RawSql) MarshalJSON() ([]byte, error) {
	if r.rows != nil {
		return nil, errors.New("cursor based raw sql is not serializable")
	}
	return json.Marshal(rawSqlJson{
		Sql:           r.sql,
		ColumnMapping: r.columnMapping,
	})
}

func (r *RawSql) UnmarshalJSON(data []byte) error {
	var rj rawSqlJson
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	r.rows = nil
	r.sql = rj.Sql
	r.columnMapping = rj.ColumnMapping
	return nil
}
