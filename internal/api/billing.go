package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/subscription"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// billingEventRequest is a billing event already normalized by the payment
// integration. Plan may be given directly or through the provider price id.
type billingEventRequest struct {
	Type          string     `json:"type" validate:"required,oneof=subscription.created subscription.updated subscription.deleted payment.succeeded payment.failed"`
	AccountID     string     `json:"account_id" validate:"required,uuid"`
	Plan          string     `json:"plan" validate:"omitempty,max=64"`
	PriceID       string     `json:"price_id" validate:"omitempty,max=255"`
	Status        string     `json:"status" validate:"omitempty,oneof=active trialing canceled past_due incomplete incomplete_expired unpaid"`
	ProviderSubID string     `json:"provider_sub_id" validate:"max=255"`
	PeriodStart   *time.Time `json:"period_start"`
	PeriodEnd     *time.Time `json:"period_end"`
}

func (req billingEventRequest) event() (subscription.Event, error) {
	ev := subscription.Event{
		Type:          subscription.EventType(req.Type),
		AccountID:     uuid.MustParse(req.AccountID),
		Status:        subscription.Status(req.Status),
		ProviderSubID: req.ProviderSubID,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
	}

	switch {
	case req.Plan != "":
		id, err := entitlement.ParsePlanID(req.Plan)
		if err != nil {
			return subscription.Event{}, err
		}
		ev.Plan = id
	case req.PriceID != "":
		plan, ok := entitlement.PlanByPriceID(req.PriceID)
		if !ok {
			return subscription.Event{}, entitlement.ErrUnknownPlan
		}
		ev.Plan = plan.ID
	}
	return ev, nil
}

// decodeAndValidate returns a non-nil Response when the body is unusable.
func decodeAndValidate(r *http.Request, dst any) Response {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Error(http.StatusBadRequest, "invalid_json", "Request body must be a valid JSON object.")
	}
	// Exactly one object per request.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Error(http.StatusBadRequest, "invalid_json", "Request body must be a single JSON object.")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Error(http.StatusBadRequest, "invalid_request", err.Error())
		}
		details := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = append(details[fe.Field()], "failed on "+fe.Tag())
		}
		return ValidationError(details)
	}
	return nil
}
