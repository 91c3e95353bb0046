package rawsql

import "github.com/cespare/xxhash/v2"

// query hashes are cache-lookup hints only - no collision-freedom is claimed
// and consumers (see PlanCache) must guard against equal hashes over
// differing content
//
// hash value 0 is reserved as the "uninitialized" sentinel and is never a
// valid query hash

// resultSetHashSeed seeds the incremental hash of result-set (cursor mode)
// mappings
const resultSetHashSeed uint64 = 31

// columnMappingHashSeed is the type-identity seed folded into every frozen
// ColumnMapping hash
var columnMappingHashSeed = hashString("rawsql.ColumnMapping")

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// foldHash accumulates a component into a running hash (order sensitive)
func foldHash(h uint64, component uint64) uint64 {
	return h*31 + component
}
