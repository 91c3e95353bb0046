package rawsql

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Column describes a single result column - its position, the raw (possibly
// table qualified) column expression, an optional column alias and the bean
// property it maps to
//
// the property name is mutable until the owning MappingBuilder is frozen -
// frozen mappings hold independent copies
type Column struct {
	indexPos     int
	dbColumn     string
	dbAlias      string
	propertyName string
}

// NewColumn creates a Column at the given index position
//
// the property name is derived - the dbAlias verbatim if there is one,
// otherwise the dbColumn with any leading "qualifier." stripped and the
// remaining underscore_case converted to camelCase (e.g. "c.order_total_amount"
// derives "orderTotalAmount")
func NewColumn(indexPos int, dbColumn string, dbAlias string) *Column {
	return &Column{
		indexPos:     indexPos,
		dbColumn:     dbColumn,
		dbAlias:      dbAlias,
		propertyName: derivePropertyName(dbAlias, dbColumn),
	}
}

func newColumn(indexPos int, dbColumn string, dbAlias string, propertyName string) *Column {
	if propertyName == "" && dbAlias != "" {
		propertyName = dbAlias
	}
	return &Column{
		indexPos:     indexPos,
		dbColumn:     dbColumn,
		dbAlias:      dbAlias,
		propertyName: propertyName,
	}
}

func derivePropertyName(dbAlias string, dbColumn string) string {
	if dbAlias != "" {
		return dbAlias
	}
	if dotPos := strings.IndexByte(dbColumn, '.'); dotPos != -1 {
		dbColumn = dbColumn[dotPos+1:]
	}
	return toCamelFromUnderscore(dbColumn)
}

func toCamelFromUnderscore(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	upperNext := false
	for _, r := range s {
		switch {
		case r == '_':
			upperNext = true
		case upperNext:
			builder.WriteRune(unicode.ToUpper(r))
			upperNext = false
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// IndexPos returns the zero based position of this column in the result
func (c *Column) IndexPos() int {
	return c.indexPos
}

// DbColumn returns the raw column expression (including any table qualifier)
func (c *Column) DbColumn() string {
	return c.dbColumn
}

// DbAlias returns the column alias (empty string if it has none)
func (c *Column) DbAlias() string {
	return c.dbAlias
}

// PropertyName returns the bean property this column maps to
func (c *Column) PropertyName() string {
	return c.propertyName
}

func (c *Column) setPropertyName(propertyName string) {
	c.propertyName = propertyName
}

func (c *Column) checkMapping() error {
	if c.propertyName == "" {
		return newStateError("no property name defined (column mapping) for db column %q", c.dbColumn)
	}
	return nil
}

// copy returns an independent copy - frozen mappings never share Columns with
// their still-mutable source builder
func (c *Column) copy() *Column {
	cc := *c
	return &cc
}

func (c *Column) String() string {
	return c.dbColumn + "->" + c.propertyName
}

type columnJson struct {
	IndexPos     int    `json:"indexPos"`
	DbColumn     string `json:"dbColumn"`
	DbAlias      string `json:"dbAlias,omitempty"`
	PropertyName string `json:"propertyName,omitempty"`
}

func (c *Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnJson{
		IndexPos:     c.indexPos,
		DbColumn:     c.dbColumn,
		DbAlias:      c.dbAlias,
		PropertyName: c.propertyName,
	})
}

func (c *Column) UnmarshalJSON(data []byte) error {
	var cj columnJson
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	c.indexPos = cj.IndexPos
	c.dbColumn = cj.DbColumn
	c.dbAlias = cj.DbAlias
	c.propertyName = cj.PropertyName
	return nil
}
