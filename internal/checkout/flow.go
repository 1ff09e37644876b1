package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Step is a wizard position.
type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepComplete Step = "complete"
	// StepExited means control went back to the catalog.
	StepExited Step = "exited"
)

// Card is a payment card brand offered on the payment step.
type Card string

const (
	CardVisa       Card = "Visa"
	CardMastercard Card = "Mastercard"
	CardAmex       Card = "Amex"
)

// Cards lists the selectable brands in display order.
var Cards = []Card{CardVisa, CardMastercard, CardAmex}

// ParseCard matches a brand name case-insensitively.
func ParseCard(v string) (Card, bool) {
	for _, c := range Cards {
		if strings.EqualFold(string(c), strings.TrimSpace(v)) {
			return c, true
		}
	}
	return "", false
}

// Cart is the part of the cart store the wizard needs.
type Cart interface {
	ProductTotal() decimal.Decimal
	Clear()
}

// FlowParams wires a checkout wizard.
type FlowParams struct {
	Cart             Cart
	FastShippingCost decimal.Decimal
	Logger           *logger.Logger
}

// State is a copy of the wizard for rendering.
type State struct {
	Step          Step          `json:"step"`
	Totals        Totals        `json:"totals"`
	Subtotal      string        `json:"subtotal"`
	Shipping      *ShippingForm `json:"shipping,omitempty"`
	TermsAccepted bool          `json:"termsAccepted"`
	Card          Card          `json:"card"`
	CanPlaceOrder bool          `json:"canPlaceOrder"`
}

// Flow is the linear Shipping, Payment, Complete wizard.
type Flow struct {
	cart      Cart
	surcharge decimal.Decimal
	logg      *logger.Logger

	mu       sync.Mutex
	step     Step
	totals   Totals
	shipping *ShippingForm
	terms    bool
	card     Card
}

// Begin enters the shipping step, capturing the cart's product total at this moment.
func Begin(ctx context.Context, p FlowParams) (*Flow, error) {
	if p.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if p.FastShippingCost.IsNegative() {
		return nil, fmt.Errorf("fast shipping cost must not be negative")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	f := &Flow{
		cart:      p.Cart,
		surcharge: p.FastShippingCost,
		logg:      logg,
		step:      StepShipping,
		totals:    Totals{ProductTotal: p.Cart.ProductTotal(), ShippingCost: decimal.Zero},
		card:      CardVisa,
	}
	f.logStep(ctx)
	return f, nil
}

// ShippingPreview returns the totals the shipping step shows for a candidate method.
func (f *Flow) ShippingPreview(method ShippingMethod) Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Totals{ProductTotal: f.totals.ProductTotal, ShippingCost: ShippingCost(method, f.surcharge)}
}

// SubmitShipping moves to the payment step. Form problems are logged but never block.
func (f *Flow) SubmitShipping(ctx context.Context, form ShippingForm) (Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect(StepShipping, "submit shipping"); err != nil {
		return Totals{}, err
	}
	form = form.normalized()
	if !form.Method.IsValid() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]string{"shippingMethod": "must be one of free fast"})
	}
	if err := ValidateShippingForm(form); err != nil {
		f.logg.Debug(f.logg.WithField(ctx, "problems", pkgerrors.As(err).Details()), "shipping form incomplete")
	}

	f.shipping = &form
	f.totals.ShippingCost = ShippingCost(form.Method, f.surcharge)
	f.step = StepPayment
	f.logStep(ctx)
	return f.totals, nil
}

// SetTermsAccepted toggles the terms checkbox on the payment step.
func (f *Flow) SetTermsAccepted(accepted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment, "accept terms"); err != nil {
		return err
	}
	f.terms = accepted
	return nil
}

// SelectCard picks the card brand on the payment step.
func (f *Flow) SelectCard(card Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment, "select card"); err != nil {
		return err
	}
	parsed, ok := ParseCard(string(card))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported card").
			WithDetails(map[string]string{"card": "must be one of Visa Mastercard Amex"})
	}
	f.card = parsed
	return nil
}

// PlaceOrder completes the wizard once the terms are accepted. Nothing is sent anywhere.
func (f *Flow) PlaceOrder(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment, "place order"); err != nil {
		return err
	}
	if !f.terms {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "terms and conditions must be accepted").
			WithDetails(map[string]any{"step": f.step, "termsAccepted": false})
	}
	f.step = StepComplete
	f.logStep(ctx)
	return nil
}

// ContinueShopping clears the cart and leaves the wizard.
func (f *Flow) ContinueShopping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepComplete, "continue shopping"); err != nil {
		return err
	}
	f.cart.Clear()
	f.step = StepExited
	f.logStep(ctx)
	return nil
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Totals returns the totals carried by the wizard.
func (f *Flow) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals
}

// State returns a copy for rendering.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := State{
		Step:          f.step,
		Totals:        f.totals,
		Subtotal:      f.totals.Subtotal().StringFixed(2),
		TermsAccepted: f.terms,
		Card:          f.card,
		CanPlaceOrder: f.step == StepPayment && f.terms,
	}
	if f.shipping != nil {
		cp := *f.shipping
		st.Shipping = &cp
	}
	return st
}

func (f *Flow) expect(step Step, action string) error {
	if f.step == step {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s during the %s step", action, f.step)).
		WithDetails(map[string]any{"step": f.step, "required": step})
}

func (f *Flow) logStep(ctx context.Context) {
	f.logg.Info(f.logg.WithFields(ctx, map[string]any{
		"step":          string(f.step),
		"product_total": f.totals.ProductTotal.String(),
		"shipping_cost": f.totals.ShippingCost.String(),
	}), "checkout step entered")
}
