package rawsql

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPlanCache_PutGet(t *testing.T) {
	cache := NewPlanCache(10, 0)
	r := Unparsed(`select order_id from orders`).ColumnMapping("order_id", "orderId").MustCreate()

	_, ok, err := cache.Get(r)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(r, "the plan"))
	plan, ok, err := cache.Get(r)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "the plan", plan)
	require.Equal(t, 1, cache.Len())
}

func TestPlanCache_HitRequiresSameContent(t *testing.T) {
	cache := NewPlanCache(10, 0)
	r := Unparsed(`select order_id from orders`).ColumnMapping("order_id", "orderId").MustCreate()
	require.NoError(t, cache.Put(r, "the plan"))

	// an independently built RawSql with identical content is a hit
	same := Unparsed(`select order_id from orders`).ColumnMapping("order_id", "orderId").MustCreate()
	plan, ok, err := cache.Get(same)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "the plan", plan)

	// different content is a miss
	other := Unparsed(`select order_id from archived_orders`).ColumnMapping("order_id", "orderId").MustCreate()
	_, ok, err = cache.Get(other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPlanCache_GuardsHashCollisions(t *testing.T) {
	cache := NewPlanCache(10, 0)
	// forge two mappings that share a stored hash but differ in content -
	// the stored hash survives the json round trip
	forge := func(dbColumn string) *ColumnMapping {
		var m ColumnMapping
		data := fmt.Sprintf(`{"parsed":false,"columns":[{"indexPos":0,"dbColumn":%q,"propertyName":"p"}],"queryHash":12345}`, dbColumn)
		require.NoError(t, json.Unmarshal([]byte(data), &m))
		return &m
	}
	s := NewSql(`select a from t`)
	first := NewRawSql(s, forge("a"))
	second := NewRawSql(s, forge("b"))

	h1, err := first.QueryHash()
	require.NoError(t, err)
	h2, err := second.QueryHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	require.NoError(t, cache.Put(first, "first plan"))
	_, ok, err := cache.Get(second)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(second, "second plan"))
	plan, ok, err := cache.Get(first)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first plan", plan)
	plan, ok, err = cache.Get(second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second plan", plan)
	// both collide onto one hash entry
	require.Equal(t, 1, cache.Len())
}

func TestPlanCache_ReplacesExistingPlan(t *testing.T) {
	cache := NewPlanCache(10, 0)
	r := Unparsed(`select a from t`).ColumnMapping("a", "a").MustCreate()
	require.NoError(t, cache.Put(r, "old plan"))
	require.NoError(t, cache.Put(r, "new plan"))
	plan, ok, err := cache.Get(r)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new plan", plan)
	require.Equal(t, 1, cache.Len())
}

func TestPlanCache_RejectsCursorRawSql(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"a"}))
	rows, err := db.Query(`select a from t`)
	require.NoError(t, err)

	cache := NewPlanCache(10, 0)
	err = cache.Put(NewCursorRawSql(rows, "a"), "plan")
	require.Error(t, err)
}

func TestPlanCache_UninitializedMapping(t *testing.T) {
	cache := NewPlanCache(10, 0)
	r := NewRawSql(NewSql(`select 1`), &ColumnMapping{})
	_, _, err := cache.Get(r)
	require.Error(t, err)
	require.Error(t, cache.Put(r, "plan"))
}

func TestPlanCache_Expiry(t *testing.T) {
	cache := NewPlanCache(10, 25*time.Millisecond)
	r := Unparsed(`select a from t`).ColumnMapping("a", "a").MustCreate()
	require.NoError(t, cache.Put(r, "plan"))
	_, ok, err := cache.Get(r)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok, err = cache.Get(r)
	require.NoError(t, err)
	require.False(t, ok)
}
