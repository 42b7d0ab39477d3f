package cart

import (
	"testing"

	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	plumbing = Service{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150), Category: "Plumbing Services"}
	ironing  = Service{ID: 4, Name: "Clothes Ironing Services", Price: decimal.NewFromInt(100), Category: "Clothes Ironing Services"}
)

func newTestStore() *Store {
	return NewStore(NewIndex([]Service{plumbing, ironing}))
}

func TestAddLinesAndRejectDuplicate(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	require.Equal(t, SignalAdded, s.AddLine(plumbing.ID))
	require.Equal(t, SignalAdded, s.AddLine(ironing.ID))
	assert.Equal(t, 2, s.TotalLineCount())
	assert.True(t, decimal.NewFromInt(250).Equal(s.TotalPrice()))

	sig := s.AddLine(plumbing.ID)
	assert.Equal(t, SignalAlreadyInCart, sig)
	assert.False(t, sig.OK())
	assert.Equal(t, 2, s.TotalLineCount())
	assert.True(t, decimal.NewFromInt(250).Equal(s.TotalPrice()))

	line, ok := s.Line(plumbing.ID)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestAddUnknownServiceSignalsNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	sig := s.AddLine(99)
	assert.Equal(t, SignalNotFound, sig)
	assert.True(t, s.IsEmpty())

	err := sig.Err(99)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, pkgerrors.CodeDuplicateLine, pkgerrors.As(SignalAlreadyInCart.Err(1)).Code())
	assert.NoError(t, SignalAdded.Err(1))
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	t.Parallel()
	viaQuantity := newTestStore()
	viaRemove := newTestStore()
	for _, s := range []*Store{viaQuantity, viaRemove} {
		s.AddLine(plumbing.ID)
		s.AddLine(ironing.ID)
	}

	assert.Equal(t, SignalRemoved, viaQuantity.SetQuantity(plumbing.ID, 0))
	assert.Equal(t, SignalRemoved, viaRemove.RemoveLine(plumbing.ID))

	assert.Equal(t, viaRemove.Lines(), viaQuantity.Lines())
	assert.Equal(t, 1, viaQuantity.TotalLineCount())
	assert.True(t, decimal.NewFromInt(100).Equal(viaQuantity.TotalPrice()))

	assert.Equal(t, SignalRemoved, viaQuantity.SetQuantity(ironing.ID, -3))
	assert.True(t, viaQuantity.IsEmpty())
}

func TestSetQuantityClampsToOneVisit(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.AddLine(plumbing.ID)

	assert.Equal(t, SignalUpdated, s.SetQuantity(plumbing.ID, 5))
	line, _ := s.Line(plumbing.ID)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, decimal.NewFromInt(150).Equal(s.TotalPrice()))

	assert.Equal(t, SignalNotFound, s.SetQuantity(ironing.ID, 2))
}

func TestRemoveAbsentLineIsNoOp(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.AddLine(ironing.ID)
	before := s.Lines()

	assert.Equal(t, SignalNotFound, s.RemoveLine(plumbing.ID))
	assert.Equal(t, before, s.Lines())
}

func TestTotalPriceIsPure(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.AddLine(plumbing.ID)
	s.AddLine(ironing.ID)

	first := s.TotalPrice()
	second := s.TotalPrice()
	assert.True(t, first.Equal(second))
	assert.Equal(t, 2, s.TotalLineCount())
}

func TestSetSelectedItemsReplacesWholesale(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.AddLine(ironing.ID)

	items := []SelectedItem{{Name: "Shirt", Selected: true}, {Name: "Kurta"}}
	require.Equal(t, SignalUpdated, s.SetSelectedItems(ironing.ID, items))
	items[0].Selected = false

	line, _ := s.Line(ironing.ID)
	require.Len(t, line.SelectedItems, 2)
	assert.True(t, line.SelectedItems[0].Selected, "store must copy the input slice")
	assert.True(t, line.HasSelection())
	assert.Equal(t, []string{"Shirt"}, line.SelectedNames())

	require.Equal(t, SignalUpdated, s.SetSelectedItems(ironing.ID, []SelectedItem{{Name: "Sherwani"}}))
	line, _ = s.Line(ironing.ID)
	assert.Equal(t, []SelectedItem{{Name: "Sherwani"}}, line.SelectedItems)
	assert.False(t, line.HasSelection())

	assert.Equal(t, SignalNotFound, s.SetSelectedItems(plumbing.ID, items))
}

func TestLinesReturnsCopies(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.AddLine(ironing.ID)
	s.SetSelectedItems(ironing.ID, []SelectedItem{{Name: "Shirt", Selected: true}})

	lines := s.Lines()
	lines[0].SelectedItems[0].Selected = false
	lines[0].Quantity = 9

	line, _ := s.Line(ironing.ID)
	assert.True(t, line.SelectedItems[0].Selected)
	assert.Equal(t, 1, line.Quantity)
}

func TestObserversSeeSizeChanges(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	var changes []SizeChange
	unsubscribe := s.Subscribe(func(c SizeChange) { changes = append(changes, c) })

	s.AddLine(plumbing.ID)
	s.AddLine(plumbing.ID)
	s.SetQuantity(plumbing.ID, 3)
	s.AddLine(ironing.ID)
	s.RemoveLine(plumbing.ID)
	s.Clear()

	assert.Equal(t, []SizeChange{{0, 1}, {1, 2}, {2, 1}, {1, 0}}, changes)

	unsubscribe()
	s.AddLine(plumbing.ID)
	assert.Len(t, changes, 4)
}

func TestRestoreDedupesAndNormalizesQuantity(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	notified := 0
	s.Subscribe(func(SizeChange) { notified++ })

	s.Restore([]Line{
		{Service: plumbing, Quantity: 4},
		{Service: ironing, Quantity: 1, SelectedItems: []SelectedItem{{Name: "Shirt", Selected: true}}},
		{Service: plumbing, Quantity: 1},
	})

	require.Equal(t, 2, s.TotalLineCount())
	line, _ := s.Line(plumbing.ID)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 1, notified)
	assert.True(t, decimal.NewFromInt(250).Equal(s.TotalPrice()))
}
