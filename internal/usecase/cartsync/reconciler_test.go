//go:build unit

package cartsync_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/cartsync"
	"storefront/internal/usecase/shared"
	"storefront/tests/common/fakestore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var errNetwork = errs.Transient(errs.New("connection reset by peer"))

type ReconcilerTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *fakestore.Store
	rec    *cartsync.Reconciler
	lineID string
}

func (s *ReconcilerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = fakestore.New()
	s.lineID = s.store.Seed("7", 2)
	s.rec = cartsync.NewReconciler(s.store, cartsync.WithResyncTimeout(time.Second))

	_, err := s.rec.Init(s.ctx)
	s.Require().NoError(err)
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

func (s *ReconcilerTestSuite) requireSubtotal(expected string) {
	s.T().Helper()
	got := s.rec.Totals().Subtotal
	s.Require().True(decimal.RequireFromString(expected).Equal(got), "subtotal want %s got %s", expected, got)
}

func (s *ReconcilerTestSuite) quantityOf(lineID string) int {
	s.T().Helper()
	l, ok := s.rec.Snapshot().Line(lineID)
	s.Require().True(ok, "line %s missing", lineID)
	return l.Quantity()
}

func (s *ReconcilerTestSuite) TestInit() {
	s.Run("loads the authoritative cart", func() {
		totals := s.rec.Totals()
		s.Equal(2, totals.ItemCount)
		s.requireSubtotal("1000")
		s.Equal(cartsync.StateIdle, s.rec.State())
		s.True(s.rec.IsProductInCart("7"))
		s.False(s.rec.IsProductInCart("8"))
	})

	s.Run("a failed load leaves the cart empty", func() {
		rec := cartsync.NewReconciler(s.store)
		s.store.FailNext(fakestore.OpFetch, errs.AuthRequired(shared.ErrNotAuthenticated))

		_, err := rec.Init(s.ctx)
		s.Require().Error(err)
		s.Equal(errs.KindAuthRequired, errs.KindOf(err))
		s.True(rec.Snapshot().IsEmpty())
	})
}

func (s *ReconcilerTestSuite) TestUpdateQuantity() {
	s.Run("success replaces the cart with the store's answer", func() {
		out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 3)
		s.Require().NoError(err)
		s.False(out.Reverted)

		l, ok := out.Snapshot.Line(s.lineID)
		s.Require().True(ok)
		s.Equal(3, l.Quantity())
		s.True(decimal.NewFromInt(1500).Equal(l.LineTotal()))
		s.requireSubtotal("1500")
		s.True(s.store.Snapshot().Subtotal().Equal(s.rec.Totals().Subtotal))
	})

	s.Run("transient failure reverts to the confirmed quantity", func() {
		s.store.FailNext(fakestore.OpUpdate, errNetwork)
		fetchesBefore := s.store.Calls(fakestore.OpFetch)

		out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 5)
		s.Require().Error(err)
		s.Equal(errs.KindTransient, errs.KindOf(err))
		s.True(out.Reverted)
		s.True(out.Resynced)
		s.Equal(fetchesBefore+1, s.store.Calls(fakestore.OpFetch))
		s.Equal(3, s.quantityOf(s.lineID))
		s.requireSubtotal("1500")
		s.Equal(cartsync.StateIdle, s.rec.State())
	})

	s.Run("stock refusal is a conflict and rolls back", func() {
		out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 11)
		s.Require().Error(err)
		s.Equal(errs.KindConflict, errs.KindOf(err))
		s.True(errs.Is(err, shared.ErrOutOfStock))
		s.True(out.Reverted)
		s.Equal(3, s.quantityOf(s.lineID))
	})

	s.Run("zero is rejected without a request", func() {
		before := s.store.Calls(fakestore.OpUpdate)
		_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 0)
		s.Require().Error(err)
		s.Equal(errs.KindValidation, errs.KindOf(err))
		s.True(errs.Is(err, cart.ErrInvalidQuantity))
		s.Equal(before, s.store.Calls(fakestore.OpUpdate))
	})

	s.Run("same quantity is a no-op", func() {
		before := s.store.Calls(fakestore.OpUpdate)
		out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 3)
		s.Require().NoError(err)
		s.Equal(before, s.store.Calls(fakestore.OpUpdate))
		s.Equal(3, s.quantityOf(s.lineID))
		s.False(out.Reverted)
	})

	s.Run("unknown line is a conflict without a request", func() {
		before := s.store.Calls(fakestore.OpUpdate)
		_, err := s.rec.UpdateQuantity(s.ctx, "missing", 2)
		s.Require().Error(err)
		s.True(errs.Is(err, cart.ErrLineNotFound))
		s.Equal(errs.KindConflict, errs.KindOf(err))
		s.Equal(before, s.store.Calls(fakestore.OpUpdate))
	})
}

func (s *ReconcilerTestSuite) TestUpdateQuantityScenarioRevert() {
	_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 3)
	s.Require().NoError(err)
	s.Require().Equal(3, s.quantityOf(s.lineID))

	// back to the original two, then a failure on the way to three
	_, err = s.rec.UpdateQuantity(s.ctx, s.lineID, 2)
	s.Require().NoError(err)
	s.store.FailNext(fakestore.OpUpdate, errNetwork)

	out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 3)
	s.Require().Error(err)
	l, ok := out.Snapshot.Line(s.lineID)
	s.Require().True(ok)
	s.Equal(2, l.Quantity())
	s.True(decimal.NewFromInt(1000).Equal(l.LineTotal()))
}

func (s *ReconcilerTestSuite) TestOptimisticViewWhileInFlight() {
	entered, release := s.store.Block(fakestore.OpUpdate)
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 4)
		done <- err
	}()

	<-entered
	s.Equal(cartsync.StateMutating, s.rec.State())
	s.Equal(4, s.quantityOf(s.lineID))
	s.requireSubtotal("2000")

	release()
	s.Require().NoError(<-done)
	s.Equal(cartsync.StateIdle, s.rec.State())
	s.Equal(4, s.quantityOf(s.lineID))
}

func (s *ReconcilerTestSuite) TestVisibleRevertAfterFailure() {
	s.store.FailNext(fakestore.OpUpdate, errNetwork)
	entered, release := s.store.Block(fakestore.OpUpdate)

	done := make(chan cartsync.Outcome, 1)
	go func() {
		out, _ := s.rec.UpdateQuantity(s.ctx, s.lineID, 6)
		done <- out
	}()

	<-entered
	s.Equal(6, s.quantityOf(s.lineID))
	release()

	out := <-done
	s.True(out.Reverted)
	s.Equal(2, s.quantityOf(s.lineID))
}

func (s *ReconcilerTestSuite) TestRemoveLine() {
	s.Run("failure restores the line", func() {
		s.store.FailNext(fakestore.OpDelete, errNetwork)
		out, err := s.rec.RemoveLine(s.ctx, s.lineID)
		s.Require().Error(err)
		s.True(out.Reverted)
		s.True(s.rec.IsProductInCart("7"))
		s.requireSubtotal("1000")
	})

	s.Run("removing the last line empties the totals", func() {
		out, err := s.rec.RemoveLine(s.ctx, s.lineID)
		s.Require().NoError(err)
		s.True(out.Snapshot.IsEmpty())
		s.False(s.rec.IsProductInCart("7"))
		s.Equal(0, s.rec.Totals().ItemCount)
		s.True(s.rec.Totals().Subtotal.IsZero())
	})

	s.Run("unknown line is a conflict", func() {
		before := s.store.Calls(fakestore.OpDelete)
		_, err := s.rec.RemoveLine(s.ctx, "missing")
		s.Require().Error(err)
		s.Equal(errs.KindConflict, errs.KindOf(err))
		s.Equal(before, s.store.Calls(fakestore.OpDelete))
	})
}

func (s *ReconcilerTestSuite) TestAddLine() {
	s.Run("success merges the authoritative cart", func() {
		out, err := s.rec.AddLine(s.ctx, "8")
		s.Require().NoError(err)
		s.True(out.Snapshot.ContainsProduct("8"))
		s.True(s.rec.IsProductInCart("8"))
		s.requireSubtotal("1120.50")
		s.Equal(3, s.rec.Totals().ItemCount)
	})

	s.Run("already in cart leaves the cart untouched", func() {
		before := s.rec.Snapshot()
		fetches := s.store.Calls(fakestore.OpFetch)

		out, err := s.rec.AddLine(s.ctx, "7")
		s.Require().Error(err)
		s.Equal(errs.KindConflict, errs.KindOf(err))
		s.True(errs.Is(err, shared.ErrAlreadyInCart))
		s.False(out.Reverted)
		s.True(before.Equal(s.rec.Snapshot()))
		s.Equal(fetches, s.store.Calls(fakestore.OpFetch))
	})

	s.Run("out of stock is a conflict", func() {
		_, err := s.rec.AddLine(s.ctx, "9")
		s.Require().Error(err)
		s.True(errs.Is(err, shared.ErrOutOfStock))
		s.False(s.rec.IsProductInCart("9"))
	})

	s.Run("transient failure re-syncs", func() {
		s.store.FailNext(fakestore.OpCreate, errNetwork)
		fetches := s.store.Calls(fakestore.OpFetch)

		out, err := s.rec.AddLine(s.ctx, "9")
		s.Require().Error(err)
		s.True(out.Resynced)
		s.Equal(fetches+1, s.store.Calls(fakestore.OpFetch))
	})

	s.Run("empty product id is rejected", func() {
		_, err := s.rec.AddLine(s.ctx, "")
		s.Equal(errs.KindValidation, errs.KindOf(err))
	})
}

func (s *ReconcilerTestSuite) TestAddLineIsNotSpeculative() {
	entered, release := s.store.Block(fakestore.OpCreate)
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := s.rec.AddLine(s.ctx, "8")
		done <- err
	}()

	<-entered
	s.False(s.rec.IsProductInCart("8"))
	s.Equal(cartsync.StateMutating, s.rec.State())

	release()
	s.Require().NoError(<-done)
	s.True(s.rec.IsProductInCart("8"))
}

func (s *ReconcilerTestSuite) TestDuplicateAddsShareOneRequest() {
	entered, release := s.store.Block(fakestore.OpCreate)

	var wg sync.WaitGroup
	results := make(chan error, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.rec.AddLine(s.ctx, "8")
		results <- err
	}()
	<-entered

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.rec.AddLine(s.ctx, "8")
			results <- err
		}()
	}
	// let the followers join the pending call
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(results)

	for err := range results {
		s.NoError(err)
	}
	s.Equal(1, s.store.Calls(fakestore.OpCreate))
	s.True(s.rec.IsProductInCart("8"))
}

func (s *ReconcilerTestSuite) TestSharedAddSurvivesFirstCallerLeaving() {
	entered, release := s.store.Block(fakestore.OpCreate)
	defer release()

	firstCtx, cancelFirst := context.WithCancel(s.ctx)
	first := make(chan error, 1)
	go func() {
		_, err := s.rec.AddLine(firstCtx, "8")
		first <- err
	}()
	<-entered

	second := make(chan error, 1)
	go func() {
		_, err := s.rec.AddLine(s.ctx, "8")
		second <- err
	}()
	// let the second caller join the pending call
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-first
	s.Require().Error(err)
	s.True(errs.Is(err, context.Canceled))

	release()
	s.Require().NoError(<-second)
	s.True(s.rec.IsProductInCart("8"))
	s.Equal(1, s.store.Calls(fakestore.OpCreate))
	s.Equal(cartsync.StateIdle, s.rec.State())
}

func (s *ReconcilerTestSuite) TestTeardownDropsInFlightResponse() {
	entered, release := s.store.Block(fakestore.OpUpdate)

	done := make(chan error, 1)
	go func() {
		_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 5)
		done <- err
	}()

	<-entered
	s.rec.Teardown()
	release()

	err := <-done
	s.Require().Error(err)
	s.True(errs.Is(err, cartsync.ErrSessionEnded))
	s.True(s.rec.Snapshot().IsEmpty())
	s.Equal(cartsync.StateIdle, s.rec.State())
}

func (s *ReconcilerTestSuite) TestStaleAnswerTriggersFetch() {
	_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 3)
	s.Require().NoError(err)

	s.store.ServeStaleNext()
	fetches := s.store.Calls(fakestore.OpFetch)

	out, err := s.rec.UpdateQuantity(s.ctx, s.lineID, 4)
	s.Require().NoError(err)
	s.True(out.Resynced)
	s.Equal(fetches+1, s.store.Calls(fakestore.OpFetch))
	s.Equal(4, s.quantityOf(s.lineID))
	s.Equal(s.store.Snapshot().Version(), s.rec.Snapshot().Version())
}

func (s *ReconcilerTestSuite) TestConvergesToFinalQuantity() {
	other := fakestore.New()
	otherLine := other.Seed("7", 2)
	rec := cartsync.NewReconciler(other)
	_, err := rec.Init(s.ctx)
	s.Require().NoError(err)

	for _, q := range []int{5, 1, 9, 4} {
		_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, q)
		s.Require().NoError(err)
	}
	_, err = rec.UpdateQuantity(s.ctx, otherLine, 4)
	s.Require().NoError(err)

	a := s.rec.Snapshot().Lines()
	b := rec.Snapshot().Lines()
	s.Require().Len(a, 1)
	s.Require().Len(b, 1)
	s.Equal(a[0].Quantity(), b[0].Quantity())
	s.True(a[0].LineTotal().Equal(b[0].LineTotal()))
	s.True(s.rec.Totals().Subtotal.Equal(rec.Totals().Subtotal))
}

// Random operations with random failures: the local subtotal always equals
// the sum of its lines, and once settled it matches the store.
func (s *ReconcilerTestSuite) TestSubtotalNeverDrifts() {
	rnd := rand.New(rand.NewPCG(7, 11))
	products := []string{"7", "8", "9", "10"}
	s.store.AddProduct("10", fakestore.Product{Name: "Cleaning Kit", Price: "19.99", Stock: 50})

	for i := range 200 {
		if rnd.IntN(4) == 0 {
			op := []fakestore.Op{fakestore.OpCreate, fakestore.OpUpdate, fakestore.OpDelete}[rnd.IntN(3)]
			s.store.FailNext(op, errNetwork)
		}

		lines := s.rec.Snapshot().Lines()
		switch rnd.IntN(3) {
		case 0:
			_, _ = s.rec.AddLine(s.ctx, products[rnd.IntN(len(products))])
		case 1:
			if len(lines) > 0 {
				_, _ = s.rec.UpdateQuantity(s.ctx, lines[rnd.IntN(len(lines))].ID(), 1+rnd.IntN(4))
			}
		case 2:
			if len(lines) > 0 {
				_, _ = s.rec.RemoveLine(s.ctx, lines[rnd.IntN(len(lines))].ID())
			}
		}

		snap := s.rec.Snapshot()
		sum := decimal.Zero
		for _, l := range snap.Lines() {
			sum = sum.Add(l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity()))))
		}
		s.Require().True(sum.Equal(snap.Subtotal()), "step %d", i)
		s.Require().Equal(cartsync.StateIdle, s.rec.State(), "step %d", i)

		remote := s.store.Snapshot()
		s.Require().True(remote.Subtotal().Equal(snap.Subtotal()), "step %d: remote %s local %s", i, remote.Subtotal(), snap.Subtotal())
	}
}

func (s *ReconcilerTestSuite) TestConcurrentReadersDuringMutations() {
	s.store.AddProduct("10", fakestore.Product{Name: "Cleaning Kit", Price: "19.99", Stock: 50})

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var readers sync.WaitGroup
	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for ctx.Err() == nil {
				snap := s.rec.Snapshot()
				_ = snap.Totals()
				_ = s.rec.IsProductInCart("7")
			}
		}()
	}

	for q := 1; q <= 5; q++ {
		_, err := s.rec.UpdateQuantity(s.ctx, s.lineID, q)
		s.Require().NoError(err)
	}
	_, err := s.rec.AddLine(s.ctx, "10")
	s.Require().NoError(err)

	cancel()
	readers.Wait()
	s.Equal(6, s.rec.Totals().ItemCount)
}
