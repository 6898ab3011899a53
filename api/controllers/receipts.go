package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/api/middleware"
	"github.com/angelmondragon/homestead-backend/api/responses"
	"github.com/angelmondragon/homestead-backend/api/validators"
	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/purchases"
	"github.com/angelmondragon/homestead-backend/internal/receipts"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

type scanRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mime_type,omitempty"`
}

// ReceiptScan parses a receipt image into reviewable line items.
func ReceiptScan(svc receipts.Service, maxImageBytes int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "receipt scanning is not configured"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}

		if maxImageBytes > 0 {
			// base64 inflates by a third; leave room for the envelope.
			r.Body = http.MaxBytesReader(w, r.Body, int64(maxImageBytes)*4/3+4096)
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		parsed, err := svc.Scan(r.Context(), householdID, receipts.ScanInput{Image: payload.Image, MIMEType: payload.MIMEType})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, parsed)
	}
}

type receiptStoreRequest struct {
	Name       string              `json:"name"`
	StoreCode  *string             `json:"store_code,omitempty"`
	Address    *string             `json:"address,omitempty"`
	City       *string             `json:"city,omitempty"`
	State      *string             `json:"state,omitempty"`
	PostalCode *string             `json:"postal_code,omitempty"`
	Phone      *string             `json:"phone,omitempty"`
	TaxRate    decimal.NullDecimal `json:"tax_rate"`
}

type transactionRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type confirmItemRequest struct {
	Brand            string            `json:"brand"`
	ItemName         string            `json:"item_name"`
	Unit             *string           `json:"unit,omitempty"`
	Count            purchases.Numeric `json:"count"`
	PricePerCount    purchases.Numeric `json:"price_per_count"`
	Units            purchases.Numeric `json:"units"`
	PricePerUnit     purchases.Numeric `json:"price_per_unit"`
	TotalPrice       purchases.Numeric `json:"total_price"`
	TaxRate          purchases.Numeric `json:"tax_rate"`
	Taxable          bool              `json:"taxable"`
	RawText          *string           `json:"raw_text,omitempty"`
	ReceiptStoreCode *string           `json:"receipt_store_code,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	TagIDs           []uuid.UUID       `json:"tag_ids,omitempty"`
	Corrected        bool              `json:"corrected,omitempty"`
}

type confirmRequest struct {
	StoreID     *uuid.UUID           `json:"store_id,omitempty"`
	Store       *receiptStoreRequest `json:"store,omitempty"`
	TripID      *uuid.UUID           `json:"trip_id,omitempty"`
	Transaction transactionRequest   `json:"transaction"`
	Items       []confirmItemRequest `json:"items" validate:"required,min=1"`
}

func (req confirmRequest) toInput(userID *uuid.UUID) (purchases.ConfirmInput, error) {
	input := purchases.ConfirmInput{
		StoreID: req.StoreID,
		TripID:  req.TripID,
		Time:    req.Transaction.Time,
		UserID:  userID,
		Items:   make([]purchases.ItemInput, 0, len(req.Items)),
	}
	if req.Store != nil {
		input.Store = entities.StoreParams{
			Name:       req.Store.Name,
			StoreCode:  req.Store.StoreCode,
			Address:    req.Store.Address,
			City:       req.Store.City,
			State:      req.Store.State,
			PostalCode: req.Store.PostalCode,
			Phone:      req.Store.Phone,
			TaxRate:    req.Store.TaxRate,
		}
	}
	if raw := strings.TrimSpace(req.Transaction.Date); raw != "" {
		date, err := purchases.ParseDate(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction date").
				WithDetails(map[string]string{"transaction.date": "must be a date such as 2026-03-04"})
		}
		input.Date = &date
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, purchases.ItemInput{
			Brand:            item.Brand,
			ItemName:         item.ItemName,
			Unit:             item.Unit,
			Count:            item.Count,
			PricePerCount:    item.PricePerCount,
			Units:            item.Units,
			PricePerUnit:     item.PricePerUnit,
			TotalPrice:       item.TotalPrice,
			TaxRate:          item.TaxRate,
			Taxable:          item.Taxable,
			RawText:          item.RawText,
			ReceiptStoreCode: item.ReceiptStoreCode,
			Notes:            item.Notes,
			TagIDs:           item.TagIDs,
			Corrected:        item.Corrected,
		})
	}
	return input, nil
}

// ReceiptConfirm records a reviewed receipt as purchases and ledger entries.
func ReceiptConfirm(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmReceipt(r.Context(), householdID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
