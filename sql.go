package rawsql

import (
	"encoding/json"
	"fmt"
)

// Sql is the sql part of a raw query - either completely unparsed (left
// untouched downstream) or broken up into fragments so that the query engine
// can insert extra WHERE and HAVING expressions
//
// Sql values are immutable from construction and safe for concurrent use
type Sql struct {
	parsed        bool
	unparsedSql   string
	preFrom       string
	preWhere      string
	andWhereExpr  bool
	preHaving     string
	andHavingExpr bool
	orderBy       string
	distinct      bool
	queryHash     uint64
}

// NewSql creates a Sql for completely unparsed sql
//
// the query engine can never add WHERE or HAVING expressions into unparsed
// sql - it is used exactly as supplied
func NewSql(unparsedSql string) *Sql {
	return &Sql{
		parsed:      false,
		unparsedSql: unparsedSql,
		queryHash:   hashString(unparsedSql),
	}
}

// NewParsedSql creates a Sql from the fragments identified by an external
// sql structure parser
//
// the queryHash is supplied by that parser (derived from the structural
// parse) rather than recomputed here
//
// andWhereExpr/andHavingExpr indicate there is already a WHERE/HAVING clause
// and any injected expressions must start with AND
func NewParsedSql(queryHash uint64, preFrom string, preWhere string, andWhereExpr bool, preHaving string, andHavingExpr bool, orderBy string, distinct bool) *Sql {
	return &Sql{
		parsed:        true,
		preFrom:       preFrom,
		preWhere:      preWhere,
		andWhereExpr:  andWhereExpr,
		preHaving:     preHaving,
		andHavingExpr: andHavingExpr,
		orderBy:       orderBy,
		distinct:      distinct,
		queryHash:     queryHash,
	}
}

// IsParsed returns whether the sql was parsed into fragments - when false the
// sql is left completely unmodified downstream
func (s *Sql) IsParsed() bool {
	return s.parsed
}

// UnparsedSql returns the sql when it is unparsed (empty string otherwise)
func (s *Sql) UnparsedSql() string {
	return s.unparsedSql
}

// PreFrom returns the sql prior to the FROM clause
func (s *Sql) PreFrom() string {
	return s.preFrom
}

// PreWhere returns the sql prior to the WHERE clause
func (s *Sql) PreWhere() string {
	return s.preWhere
}

// IsAndWhereExpr returns true if there is already a WHERE clause and any
// extra where expressions start with AND
func (s *Sql) IsAndWhereExpr() bool {
	return s.andWhereExpr
}

// PreHaving returns the sql prior to the HAVING clause
func (s *Sql) PreHaving() string {
	return s.preHaving
}

// IsAndHavingExpr returns true if there is already a HAVING clause and any
// extra having expressions start with AND
func (s *Sql) IsAndHavingExpr() bool {
	return s.andHavingExpr
}

// OrderBy returns the sql ORDER BY clause
func (s *Sql) OrderBy() string {
	return s.orderBy
}

// IsDistinct returns whether the select is distinct
func (s *Sql) IsDistinct() bool {
	return s.distinct
}

// QueryHash returns the hash for this sql (a cache lookup hint only)
func (s *Sql) QueryHash() uint64 {
	return s.queryHash
}

func (s *Sql) String() string {
	if !s.parsed {
		return "unparsed[" + s.unparsedSql + "]"
	}
	return fmt.Sprintf("select[%s] preWhere[%s] preHaving[%s] orderBy[%s]", s.preFrom, s.preWhere, s.preHaving, s.orderBy)
}

type sqlJson struct {
	Parsed        bool   `json:"parsed"`
	UnparsedSql   string `json:"unparsedSql,omitempty"`
	PreFrom       string `json:"preFrom,omitempty"`
	PreWhere      string `json:"preWhere,omitempty"`
	AndWhereExpr  bool   `json:"andWhereExpr,omitempty"`
	PreHaving     string `json:"preHaving,omitempty"`
	AndHavingExpr bool   `json:"andHavingExpr,omitempty"`
	OrderBy       string `json:"orderBy,omitempty"`
	Distinct      bool   `json:"distinct,omitempty"`
	QueryHash     uint64 `json:"queryHash"`
}

func (s *Sql) MarshalJSON() ([]byte, error) {
	return json.Marshal(sqlJson{
		Parsed:        s.parsed,
		UnparsedSql:   s.unparsedSql,
		PreFrom:       s.preFrom,
		PreWhere:      s.preWhere,
		AndWhereExpr:  s.andWhereExpr,
		PreHaving:     s.preHaving,
		AndHavingExpr: s.andHavingExpr,
		OrderBy:       s.orderBy,
		Distinct:      s.distinct,
		QueryHash:     s.queryHash,
	})
}

func (s *Sql) UnmarshalJSON(data []byte) error {
	var sj sqlJson
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	s.parsed = sj.Parsed
	s.unparsedSql = sj.UnparsedSql
	s.preFrom = sj.PreFrom
	s.preWhere = sj.PreWhere
	s.andWhereExpr = sj.AndWhereExpr
	s.preHaving = sj.PreHaving
	s.andHavingExpr = sj.AndHavingExpr
	s.orderBy = sj.OrderBy
	s.distinct = sj.Distinct
	s.queryHash = sj.QueryHash
	return nil
}

func (s *Sql) sameShape(other *Sql) bool {
	return s.parsed == other.parsed &&
		s.unparsedSql == other.unparsedSql &&
		s.preFrom == other.preFrom &&
		s.preWhere == other.preWhere &&
		s.andWhereExpr == other.andWhereExpr &&
		s.preHaving == other.preHaving &&
		s.andHavingExpr == other.andHavingExpr &&
		s.orderBy == other.orderBy &&
		s.distinct == other.distinct
}
