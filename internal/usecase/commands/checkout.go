package commands

//go:generate mockgen -source=checkout.go -destination=../../../tests/mock/commands/checkout.go -package=commandsmock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"storefront/internal/domain/discount"
	"storefront/internal/domain/order"
	reqdto "storefront/internal/handler/dto/request"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrIdempotencyInProgress   = errs.New("checkout with this idempotency key is in progress")
	ErrIdempotencyKeyReuse     = errs.New("idempotency key reused with a different request")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
	ErrCheckoutOutcomeUnknown  = errs.New("an earlier checkout with this idempotency key may have placed an order, check the order history before retrying")
)

const (
	checkoutEndpoint = "POST /api/checkout"

	NotificationKindOrderPlaced  = "order_placed"
	NotificationTopicOrderPlaced = "order.placed"

	// how far before the order request a store timestamp may fall and still
	// belong to it
	orderMatchSkew = time.Minute
)

// Quote is the price breakdown shown before checkout.
type Quote struct {
	Breakdown           discount.Breakdown
	AvailablePoints     int64
	MaxRedeemablePoints int64
	PersonalPercentage  decimal.Decimal
	PromoCode           string
	PromoDropped        bool
}

type CheckoutResult struct {
	Order      *order.Confirmation `json:"order"`
	Breakdown  discount.Breakdown  `json:"breakdown"`
	IsReplayed bool                `json:"-"`

	reconciled bool
}

// pendingCheckout is kept with a parked idempotency key so a retry can find
// the order that may have been placed.
type pendingCheckout struct {
	Breakdown discount.Breakdown `json:"breakdown"`
	SentAt    time.Time          `json:"sent_at"`
}

type CheckoutCommands interface {
	Quote(ctx context.Context, sess *session.Session, points int64) (*Quote, error)
	Checkout(ctx context.Context, sess *session.Session, req reqdto.CheckoutRequest, idempotencyKey uuid.UUID) (*CheckoutResult, error)
}

type checkoutCommandsImpl struct {
	accounts  shared.AccountGateway
	discounts shared.DiscountGateway
	orders    shared.OrderGateway
	uow       shared.UnitOfWork
	clock     clock.Clock
	shipping  decimal.Decimal
	keyTTL    time.Duration
}

func NewCheckoutCommands(
	accounts shared.AccountGateway,
	discounts shared.DiscountGateway,
	orders shared.OrderGateway,
	uow shared.UnitOfWork,
	clk clock.Clock,
	cfg config.CheckoutConfig,
) (CheckoutCommands, error) {
	shipping, err := decimal.NewFromString(cfg.Shipping)
	if err != nil {
		return nil, errs.Wrap(err, "parse CHECKOUT_SHIPPING")
	}
	if shipping.IsNegative() {
		return nil, errs.Wrap(discount.ErrNegativeAmount, "CHECKOUT_SHIPPING")
	}
	return &checkoutCommandsImpl{
		accounts:  accounts,
		discounts: discounts,
		orders:    orders,
		uow:       uow,
		clock:     clk,
		shipping:  shipping,
		keyTTL:    cfg.IdempotencyTTL,
	}, nil
}

// Quote prices the current cart. Requested points are clamped to what the
// balance and subtotal allow.
func (c *checkoutCommandsImpl) Quote(ctx context.Context, sess *session.Session, points int64) (*Quote, error) {
	if points < 0 {
		return nil, errs.Validation(discount.ErrNegativePoints)
	}
	subtotal := sess.Cart.Totals().Subtotal

	profile, err := c.accounts.FetchProfile(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "fetch profile")
	}
	maxPoints := discount.MaxRedeemablePoints(profile.Points(), subtotal)

	pct, err := c.discounts.FetchPersonalDiscount(ctx)
	if err != nil {
		if errs.KindOf(err) == errs.KindAuthRequired {
			return nil, err
		}
		slog.Warn("personal discount unavailable for quote", "error", err.Error())
		pct = nil
	}

	promo, dropped, err := currentPromo(ctx, c.discounts, sess, subtotal)
	if err != nil {
		return nil, err
	}

	in := c.inputs(subtotal, discount.ClampPoints(points, maxPoints), promo, pct)
	quote := &Quote{
		Breakdown:           discount.Compose(in),
		AvailablePoints:     profile.Points(),
		MaxRedeemablePoints: maxPoints,
		PersonalPercentage:  decimal.Zero,
		PromoDropped:        dropped,
	}
	if pct != nil {
		quote.PersonalPercentage = pct.Value()
	}
	if promo != nil {
		quote.PromoCode = promo.Code.String()
	}
	return quote, nil
}

// Checkout places the order for the current cart. Repeating a request with
// the same idempotency key returns the first result without ordering twice.
// When the store request fails without a clear answer the key stays taken,
// and a retry looks the order up in the user's history instead of sending
// it again.
func (c *checkoutCommandsImpl) Checkout(
	ctx context.Context,
	sess *session.Session,
	req reqdto.CheckoutRequest,
	idempotencyKey uuid.UUID,
) (*CheckoutResult, error) {
	requestHash := c.calculateRequestHash(req)

	replayed, err := c.handleIdempotency(ctx, idempotencyKey, sess.UserID, requestHash)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		replayed.IsReplayed = true
		if replayed.reconciled {
			c.finish(ctx, sess)
		}
		return replayed, nil
	}

	payload, breakdown, err := c.prepareOrder(ctx, sess, req)
	if err != nil {
		c.releaseKey(ctx, idempotencyKey, sess.UserID)
		return nil, err
	}

	sentAt := c.clock.Now()
	confirmation, err := c.orders.Checkout(ctx, payload)
	if err != nil {
		if orderNotPlaced(err) {
			c.releaseKey(ctx, idempotencyKey, sess.UserID)
		} else {
			c.parkKey(ctx, idempotencyKey, sess.UserID, pendingCheckout{Breakdown: breakdown, SentAt: sentAt})
		}
		return nil, errs.Wrap(err, "store checkout")
	}
	if !confirmation.FinalPrice.Equal(breakdown.FinalTotal) {
		slog.Warn("store priced the order differently",
			"order_id", confirmation.OrderID,
			"expected", breakdown.FinalTotal.String(),
			"charged", confirmation.FinalPrice.String())
	}

	result := &CheckoutResult{Order: confirmation, Breakdown: breakdown}
	if err := c.complete(ctx, idempotencyKey, sess.UserID, result); err != nil {
		// the order exists; a lost record only weakens replay protection
		slog.Error("failed to record completed checkout",
			"order_id", result.Order.OrderID,
			"idempotency_key", idempotencyKey,
			"error", err.Error())
	}

	c.finish(ctx, sess)
	return result, nil
}

// orderNotPlaced reports whether a failed order request certainly left no
// order behind: it never reached the store, or the store refused it.
func orderNotPlaced(err error) bool {
	if errs.Is(err, shared.ErrRequestNotSent) {
		return true
	}
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindConflict, errs.KindAuthRequired:
		return true
	default:
		return false
	}
}

func (c *checkoutCommandsImpl) finish(ctx context.Context, sess *session.Session) {
	sess.ClearPromo()
	sess.Cart.Teardown()
	if _, err := sess.Cart.Init(ctx); err != nil {
		slog.Warn("cart reload after checkout failed", "user_id", sess.UserID, "error", err.Error())
	}
}

func (c *checkoutCommandsImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey uuid.UUID,
	userID, requestHash string,
) (*CheckoutResult, error) {
	var existing *shared.IdempotencyRecord
	expiresAt := c.clock.Now().Add(c.keyTTL)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.Idempotency().TryInsert(ctx, idempotencyKey, userID, checkoutEndpoint, requestHash, expiresAt)
		if err != nil || inserted {
			return err
		}
		existing, err = tx.Idempotency().Get(ctx, idempotencyKey, userID)
		return err
	})
	if err != nil {
		return nil, errs.Transient(errs.Mark(err, ErrIdempotencyCheckFailed))
	}
	if existing == nil {
		return nil, nil
	}

	if existing.RequestHash != requestHash {
		return nil, errs.Conflict(ErrIdempotencyKeyReuse)
	}
	switch existing.Status {
	case shared.IdempotencyStatusCompleted:
		var result CheckoutResult
		if err := json.Unmarshal(existing.Response, &result); err != nil {
			return nil, errs.Wrap(err, "decode stored checkout result")
		}
		return &result, nil
	case shared.IdempotencyStatusUnknown:
		return c.reconcile(ctx, idempotencyKey, userID, existing)
	case shared.IdempotencyStatusProcessing:
		return nil, errs.Conflict(ErrIdempotencyInProgress)
	default:
		return nil, errs.Newf("invalid idempotency key status %q", existing.Status)
	}
}

// reconcile settles a parked key from the user's order history. An order
// placed after the parked request at the quoted total is taken as its
// result; without one the outcome stays unknown and the key stays taken.
func (c *checkoutCommandsImpl) reconcile(
	ctx context.Context,
	idempotencyKey uuid.UUID,
	userID string,
	rec *shared.IdempotencyRecord,
) (*CheckoutResult, error) {
	var pending pendingCheckout
	if err := json.Unmarshal(rec.Response, &pending); err != nil {
		return nil, errs.Wrap(err, "decode pending checkout")
	}

	history, err := c.orders.ListOrders(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "look up order history")
	}
	placed, ok := matchPlacedOrder(history, pending)
	if !ok {
		return nil, errs.Conflict(ErrCheckoutOutcomeUnknown)
	}

	result := &CheckoutResult{
		Order: &order.Confirmation{
			OrderID:       placed.OrderID,
			Reference:     placed.Reference,
			TotalPrice:    placed.TotalPrice,
			FinalPrice:    placed.FinalPrice,
			PaymentStatus: placed.PaymentStatus,
		},
		Breakdown:  pending.Breakdown,
		reconciled: true,
	}
	if err := c.complete(ctx, idempotencyKey, userID, result); err != nil {
		slog.Error("failed to record recovered checkout",
			"order_id", placed.OrderID,
			"idempotency_key", idempotencyKey,
			"error", err.Error())
	}
	slog.Info("recovered checkout from order history",
		"order_id", placed.OrderID,
		"idempotency_key", idempotencyKey)
	return result, nil
}

func matchPlacedOrder(history []order.Summary, pending pendingCheckout) (order.Summary, bool) {
	since := pending.SentAt.Add(-orderMatchSkew)
	for _, o := range history {
		if o.PlacedAt.IsZero() || o.PlacedAt.Before(since) {
			continue
		}
		if o.FinalPrice.Equal(pending.Breakdown.FinalTotal) {
			return o, true
		}
	}
	return order.Summary{}, false
}

// prepareOrder runs every check that can fail before the store is asked to
// place the order.
func (c *checkoutCommandsImpl) prepareOrder(
	ctx context.Context,
	sess *session.Session,
	req reqdto.CheckoutRequest,
) (shared.CheckoutPayload, discount.Breakdown, error) {
	var payload shared.CheckoutPayload

	data, err := req.ToDomain()
	if err != nil {
		return payload, discount.Breakdown{}, errs.Validation(err)
	}

	snap := sess.Cart.Snapshot()
	if snap.IsEmpty() {
		return payload, discount.Breakdown{}, errs.Validation(ErrEmptyCart)
	}
	subtotal := snap.Subtotal()

	profile, err := c.accounts.FetchProfile(ctx)
	if err != nil {
		return payload, discount.Breakdown{}, errs.Wrap(err, "fetch profile")
	}
	maxPoints := discount.MaxRedeemablePoints(profile.Points(), subtotal)
	if err := discount.ValidatePoints(data.PointsToRedeem, maxPoints); err != nil {
		return payload, discount.Breakdown{}, errs.Validation(err)
	}

	promo, dropped, err := currentPromo(ctx, c.discounts, sess, subtotal)
	if err != nil {
		return payload, discount.Breakdown{}, err
	}
	if dropped {
		return payload, discount.Breakdown{}, errs.Validation(ErrPromoNoLongerValid)
	}

	pct, err := c.discounts.FetchPersonalDiscount(ctx)
	if err != nil {
		return payload, discount.Breakdown{}, errs.Wrap(err, "fetch personal discount")
	}

	breakdown := discount.Compose(c.inputs(subtotal, data.PointsToRedeem, promo, pct))
	payload = shared.CheckoutPayload{
		Shipping:         data.Shipping,
		PaymentMethod:    data.PaymentMethod,
		PointsToRedeem:   breakdown.PointsRedeemed,
		PromoDiscount:    breakdown.PromoDiscount,
		PersonalDiscount: breakdown.PersonalDiscount,
		ExpectedTotal:    breakdown.FinalTotal,
	}
	if promo != nil {
		payload.PromoCode = promo.Code
	}
	return payload, breakdown, nil
}

func (c *checkoutCommandsImpl) complete(ctx context.Context, idempotencyKey uuid.UUID, userID string, result *CheckoutResult) error {
	response, err := json.Marshal(result)
	if err != nil {
		return err
	}
	notification, err := json.Marshal(map[string]any{
		"type":        NotificationKindOrderPlaced,
		"order_id":    result.Order.OrderID,
		"reference":   result.Order.Reference,
		"user_id":     userID,
		"final_price": result.Order.FinalPrice.String(),
		"status":      result.Order.PaymentStatus.String(),
	})
	if err != nil {
		return err
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Idempotency().MarkCompleted(ctx, idempotencyKey, userID, response); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Notifications().CreateJob(ctx, NotificationKindOrderPlaced, NotificationTopicOrderPlaced, notification, c.clock.Now()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
}

func (c *checkoutCommandsImpl) releaseKey(ctx context.Context, idempotencyKey uuid.UUID, userID string) {
	err := c.uow.Within(context.WithoutCancel(ctx), func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Release(ctx, idempotencyKey, userID)
	})
	if err != nil {
		slog.Warn("failed to release idempotency key", "idempotency_key", idempotencyKey, "error", err.Error())
	}
}

func (c *checkoutCommandsImpl) parkKey(ctx context.Context, idempotencyKey uuid.UUID, userID string, pending pendingCheckout) {
	body, err := json.Marshal(pending)
	if err == nil {
		err = c.uow.Within(context.WithoutCancel(ctx), func(ctx context.Context, tx shared.Tx) error {
			return tx.Idempotency().MarkUnknown(ctx, idempotencyKey, userID, body)
		})
	}
	if err != nil {
		slog.Error("failed to park idempotency key after an unanswered checkout",
			"idempotency_key", idempotencyKey,
			"error", err.Error())
		return
	}
	slog.Warn("checkout outcome unknown, idempotency key kept",
		"idempotency_key", idempotencyKey,
		"user_id", userID)
}

func (c *checkoutCommandsImpl) inputs(subtotal decimal.Decimal, points int64, promo *session.AppliedPromo, pct *discount.Percentage) discount.Inputs {
	in := discount.Inputs{
		Subtotal:         subtotal,
		Shipping:         c.shipping,
		PointsToRedeem:   points,
		PromoDiscount:    decimal.Zero,
		PersonalDiscount: decimal.Zero,
	}
	if promo != nil {
		in.PromoDiscount = promo.Amount
	}
	if pct != nil {
		in.PersonalDiscount = discount.PersonalDiscountAmount(subtotal, *pct)
	}
	return in
}

func (c *checkoutCommandsImpl) calculateRequestHash(req reqdto.CheckoutRequest) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
