package rawsql

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// ReadRows consumes a cursor based RawSql - reading every row and mapping it
// into a `map[string]any` keyed by the mapped bean property names
//
// the wrapped cursor is released when ReadRows returns, whether reading
// succeeded or failed
//
// options can be any of: Limiter or ErrorTranslator
func (r *RawSql) ReadRows(options ...any) (result []map[string]any, err error) {
	if r.rows == nil {
		return nil, errors.New("raw sql is not cursor based")
	}
	defer func() {
		_ = r.rows.Close()
	}()
	limiter, translator, err := readOptions(options...)
	if err != nil {
		return nil, err
	}
	var reader *cursorReader
	if reader, err = r.newCursorReader(); err != nil {
		return nil, translateError(err, translator)
	}
	result = make([]map[string]any, 0)
	var row map[string]any
	rowCount := 0
	for r.rows.Next() {
		rowCount++
		if limiter.LimitReached(rowCount) {
			break
		}
		if row, err = r.mapRow(reader); err != nil {
			return nil, translateError(err, translator)
		}
		result = append(result, row)
	}
	if err = r.rows.Err(); err != nil {
		return nil, translateError(err, translator)
	}
	return result, nil
}

// Iterate consumes a cursor based RawSql - calling the supplied handler with
// each mapped row
//
// iteration stops at the end of rows - or an error is encountered - or the
// supplied handler returns false for `cont` (continue)
//
// the wrapped cursor is released when Iterate returns, whether iteration
// succeeded or failed
//
// options can be any of: Limiter or ErrorTranslator
func (r *RawSql) Iterate(handler func(row map[string]any) (cont bool, err error), options ...any) (err error) {
	if r.rows == nil {
		return errors.New("raw sql is not cursor based")
	}
	defer func() {
		_ = r.rows.Close()
	}()
	limiter, translator, err := readOptions(options...)
	if err != nil {
		return err
	}
	var reader *cursorReader
	if reader, err = r.newCursorReader(); err != nil {
		return translateError(err, translator)
	}
	var row map[string]any
	cont := true
	rowCount := 0
	for r.rows.Next() && cont {
		rowCount++
		if limiter.LimitReached(rowCount) {
			break
		}
		if row, err = r.mapRow(reader); err != nil {
			return translateError(err, translator)
		}
		if cont, err = handler(row); err != nil {
			return translateError(err, translator)
		}
	}
	return translateError(r.rows.Err(), translator)
}

func readOptions(options ...any) (limiter Limiter, translator ErrorTranslator, err error) {
	limiter = &nullLimiter{}
	translator = defaultErrorTranslator
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Limiter:
				limiter = option
			case ErrorTranslator:
				translator = option
			default:
				return nil, nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return limiter, translator, nil
}

type cursorReader struct {
	count    int
	values   []any
	scanArgs []any
}

func (r *RawSql) newCursorReader() (*cursorReader, error) {
	cts, err := r.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if len(cts) != r.columnMapping.Size() {
		return nil, fmt.Errorf("cursor has %d columns but mapping has %d", len(cts), r.columnMapping.Size())
	}
	reader := &cursorReader{
		count:    len(cts),
		values:   make([]any, len(cts)),
		scanArgs: make([]any, len(cts)),
	}
	for i, ct := range cts {
		reader.scanArgs[i] = buildScanner(reader, i, ct)
	}
	return reader, nil
}

func (r *RawSql) mapRow(reader *cursorReader) (map[string]any, error) {
	if err := r.rows.Scan(reader.scanArgs...); err != nil {
		return nil, err
	}
	row := make(map[string]any, reader.count)
	for _, c := range r.columnMapping.Columns() {
		row[c.PropertyName()] = reader.values[c.IndexPos()]
	}
	return row, nil
}

func buildScanner(reader *cursorReader, index int, ct *sql.ColumnType) sql.Scanner {
	switch ct.DatabaseTypeName() {
	case "JSON", "JSONB":
		return &jsonColumnScanner{
			reader: reader,
			index:  index,
		}
	case "DECIMAL", "FLOAT", "DOUBLE", "NUMERIC":
		return &decimalColumnScanner{
			reader: reader,
			index:  index,
		}
	default:
		if strings.HasPrefix(ct.DatabaseTypeName(), "FLOAT") {
			return &decimalColumnScanner{
				reader: reader,
				index:  index,
			}
		}
	}
	if st := ct.ScanType(); st != nil {
		switch reflect.New(st).Interface().(type) {
		case *string, *sql.NullString:
			return &stringColumnScanner{
				reader: reader,
				index:  index,
			}
		case *float32, *float64, *sql.NullFloat64:
			return &decimalColumnScanner{
				reader: reader,
				index:  index,
			}
		}
	}
	return &rawColumnScanner{
		reader: reader,
		index:  index,
	}
}

type rawColumnScanner struct {
	reader *cursorReader
	index  int
}

func (c *rawColumnScanner) Scan(src any) error {
	c.reader.values[c.index] = src
	return nil
}

type stringColumnScanner struct {
	reader *cursorReader
	index  int
}

func (c *stringColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		c.reader.values[c.index] = string(v)
	default:
		c.reader.values[c.index] = v
	}
	return nil
}

type decimalColumnScanner struct {
	reader *cursorReader
	index  int
}

func (c *decimalColumnScanner) Scan(src any) error {
	var err error
	switch v := src.(type) {
	case float32:
		c.reader.values[c.index] = decimal.NewFromFloat(float64(v))
	case float64:
		c.reader.values[c.index] = decimal.NewFromFloat(v)
	case int64:
		c.reader.values[c.index] = decimal.New(v, 0)
	case []byte:
		c.reader.values[c.index], err = decimal.NewFromString(strings.Trim(string(v), `"`))
	case string:
		c.reader.values[c.index], err = decimal.NewFromString(strings.Trim(v, `"`))
	default:
		c.reader.values[c.index] = src
	}
	return err
}

type jsonColumnScanner struct {
	reader *cursorReader
	index  int
}

func (c *jsonColumnScanner) Scan(src any) error {
	var err error
	switch data := src.(type) {
	case []byte:
		var v any
		if err = json.Unmarshal(data, &v); err == nil {
			c.reader.values[c.index] = v
		}
	case string:
		var v any
		if err = json.Unmarshal([]byte(data), &v); err == nil {
			c.reader.values[c.index] = v
		}
	default:
		c.reader.values[c.index] = src
	}
	return err
}
