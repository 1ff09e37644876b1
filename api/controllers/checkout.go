package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/api/validators"
	"github.com/angelmondragon/stylinx-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

// CheckoutService starts and looks up the checkout wizard.
type CheckoutService interface {
	BeginCheckout(ctx context.Context) (*checkout.Flow, error)
	Checkout() (*checkout.Flow, error)
}

type paymentRequest struct {
	TermsAccepted *bool   `json:"termsAccepted"`
	Card          *string `json:"card"`
}

type checkoutResponse struct {
	checkout.State
	Summary totalsResponse `json:"summary"`
}

func newCheckoutResponse(f *checkout.Flow) checkoutResponse {
	st := f.State()
	return checkoutResponse{State: st, Summary: newTotalsResponse(st.Totals)}
}

// CheckoutBegin enters the shipping step over the current cart.
func CheckoutBegin(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := svc.BeginCheckout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(flow))
	}
}

func CheckoutFetch(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		responses.WriteSuccess(w, newCheckoutResponse(flow))
		return nil
	})
}

// CheckoutShippingPreview returns the totals for a candidate shipping method.
func CheckoutShippingPreview(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		method := checkout.ShippingMethod(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("method"))))
		if method == "" {
			method = checkout.ShippingFree
		}
		if !method.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
				WithDetails(map[string]string{"method": "must be one of free fast"})
		}
		responses.WriteSuccess(w, newTotalsResponse(flow.ShippingPreview(method)))
		return nil
	})
}

// CheckoutShipping submits the shipping form. Incomplete forms still advance.
func CheckoutShipping(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		form := checkout.DefaultShippingForm()
		if err := validators.DecodeJSONBodyRaw(r, &form); err != nil {
			return err
		}
		if _, err := flow.SubmitShipping(r.Context(), form); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCheckoutResponse(flow))
		return nil
	})
}

// CheckoutPayment updates the terms checkbox and the card choice.
func CheckoutPayment(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		var body paymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		if body.Card != nil {
			if err := flow.SelectCard(checkout.Card(*body.Card)); err != nil {
				return err
			}
		}
		if body.TermsAccepted != nil {
			if err := flow.SetTermsAccepted(*body.TermsAccepted); err != nil {
				return err
			}
		}
		responses.WriteSuccess(w, newCheckoutResponse(flow))
		return nil
	})
}

func CheckoutPlaceOrder(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		if err := flow.PlaceOrder(r.Context()); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCheckoutResponse(flow))
		return nil
	})
}

// CheckoutContinue clears the cart after a completed order.
func CheckoutContinue(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return withFlow(svc, logg, func(w http.ResponseWriter, r *http.Request, flow *checkout.Flow) error {
		if err := flow.ContinueShopping(r.Context()); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCheckoutResponse(flow))
		return nil
	})
}

func withFlow(svc CheckoutService, logg *logger.Logger, fn func(http.ResponseWriter, *http.Request, *checkout.Flow) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := svc.Checkout()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(w, r, flow); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}
