package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_Fixture(t *testing.T) {
	ds := Build(fixtureRaw(t))

	require.Len(t, ds.Facts, fixtureFactCount)
	assert.Equal(t, len(fixtureRows), ds.Stats.RawRows)

	entities := []struct {
		entity    Entity
		extracted int
		kept      int
		droppedBy map[string]int
	}{
		{EntityCustomers, 4, 3, map[string]int{"customer_id": 1}},
		{EntityOrders, 4, 4, nil},
		{EntityProducts, 5, 3, map[string]int{"sku": 1, "price": 1}},
		{EntitySaleLines, 6, 5, map[string]int{"price": 1}},
	}
	for _, tt := range entities {
		t.Run(string(tt.entity), func(t *testing.T) {
			s := ds.Stats.Entities[tt.entity]
			assert.Equal(t, tt.extracted, s.Extracted, "extracted")
			assert.Equal(t, tt.kept, s.Kept, "kept")
			assert.Equal(t, tt.extracted-tt.kept, s.Dropped, "dropped")
			assert.Equal(t, tt.droppedBy, s.DroppedBy)
		})
	}

	assert.Equal(t, JoinStats{CustomerOrders: 4, WithSaleLines: 5, WithProducts: 4}, ds.Stats.Joins)

	var net float64
	for _, f := range ds.Facts {
		net += f.NetItemSales
	}
	assert.InDelta(t, fixtureNetSales, net, 1e-9)

	first := ds.Facts[0]
	assert.Equal(t, "100001", first.IncrementID)
	assert.Equal(t, int64(1), first.CustomerID)
	assert.True(t, first.HasCustomer)
	assert.Equal(t, "SKU-A", first.SKU)
	assert.Equal(t, "MOBILES", first.Category)
	assert.Equal(t, 200.0, first.TotalPricePerItem)
	assert.Equal(t, 190.0, first.NetItemSales)
	assert.Equal(t, "Tuesday", first.DayOfWeek)
	assert.Equal(t, NullInt{Int: 10, Valid: true}, first.HourOfDay)
	assert.Equal(t, Month{Year: 2017, Month: time.March}, first.OrderMonth)

	assert.Equal(t, UnknownCategory, ds.Facts[1].Category)

	orphan := ds.Facts[3]
	assert.Equal(t, "100003", orphan.IncrementID)
	assert.Equal(t, SentinelCustomerID, orphan.CustomerID)
	assert.False(t, orphan.HasCustomer)
	assert.Equal(t, 0.0, orphan.GrandTotal, "unparseable grand_total falls back to 0")

	for _, f := range ds.Facts {
		assert.NotEqual(t, "100004", f.IncrementID, "line without a product must not survive")
		assert.GreaterOrEqual(t, f.ProductOriginalPrice, 0.0)
		assert.Greater(t, f.QtyOrdered, int64(0))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(fixtureRaw(t))
	b := Build(fixtureRaw(t))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Facts, b.Facts)
	assert.Equal(t, a.Stats.Entities, b.Stats.Entities)
}

func TestPipelineLoad(t *testing.T) {
	path := writeFixture(t, fixtureCSV())
	p := NewPipeline(DefaultLoadOptions(), quietLogger())

	ds, err := p.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, ds.Source)
	assert.Len(t, ds.Facts, fixtureFactCount)
	assert.Positive(t, ds.Stats.BytesRead)

	from, to, ok := ds.DateBounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2017, 3, 7, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2017, 3, 14, 0, 0, 0, 0, time.UTC), to)
}

func TestPipelineLoad_Errors(t *testing.T) {
	p := NewPipeline(DefaultLoadOptions(), quietLogger())

	t.Run("missing file", func(t *testing.T) {
		_, err := p.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Load(ctx, writeFixture(t, fixtureCSV()))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestPackageLoad(t *testing.T) {
	ds, err := Load(writeFixture(t, fixtureCSV()))
	require.NoError(t, err)
	assert.Len(t, ds.Facts, fixtureFactCount)
}

func TestDateBounds_NoDates(t *testing.T) {
	ds := &Dataset{Facts: []Fact{{IncrementID: "1"}}}
	_, _, ok := ds.DateBounds()
	assert.False(t, ok)
}
