package rawsql

// Builder is the facade for assembling a text based RawSql - compose the sql,
// chain the column mappings and call Create
//
// errors raised while chaining (such as mapping an unknown db column) are
// held and returned by Create, so definition code reads as a single fluent
// expression
type Builder struct {
	sql     *Sql
	mapping *MappingBuilder
	err     error
}

// Unparsed creates a Builder over sql that is used exactly as supplied - the
// query engine can never inject extra expressions into it
func Unparsed(unparsedSql string) *Builder {
	return &Builder{
		sql:     NewSql(unparsedSql),
		mapping: NewUnparsedMapping(),
	}
}

// Parsed creates a Builder over sql already broken into fragments by an
// external sql structure parser, together with the result columns that parse
// identified
func Parsed(s *Sql, columns []*Column) *Builder {
	return &Builder{
		sql:     s,
		mapping: NewParsedMapping(columns),
	}
}

// ColumnMapping maps a db column to a bean property
func (b *Builder) ColumnMapping(dbColumn string, propertyName string) *Builder {
	if b.err == nil {
		b.err = b.mapping.AddOrSetMapping(dbColumn, propertyName)
	}
	return b
}

// Create freezes the collected column mapping and returns the RawSql
//
// returns the first error raised while chaining - or the freeze error when a
// column was left without a property name
func (b *Builder) Create() (*RawSql, error) {
	if b.err != nil {
		return nil, b.err
	}
	frozen, err := b.mapping.Freeze()
	if err != nil {
		return nil, err
	}
	return NewRawSql(b.sql, frozen), nil
}

// MustCreate is the same as Create, except it panics on error
func (b *Builder) MustCreate() *RawSql {
	r, err := b.Create()
	if err != nil {
		panic(err)
	}
	return r
}
