package receipts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/homestead-backend/internal/corrections"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

const defaultMaxImageBytes = 10 << 20

// ScanInput carries a base64 image, optionally as a data URL.
type ScanInput struct {
	Image    string
	MIMEType string
}

type Service interface {
	Scan(ctx context.Context, householdID uuid.UUID, input ScanInput) (*ParsedReceipt, error)
}

type scanRecorder interface {
	ObserveScan(outcome string, duration time.Duration)
}

type ServiceParams struct {
	Parser        Parser
	Learner       corrections.Learner
	Logger        *logger.Logger
	Metrics       scanRecorder
	MaxImageBytes int
}

type service struct {
	parser   Parser
	learner  corrections.Learner
	logg     *logger.Logger
	metrics  scanRecorder
	maxBytes int
}

func NewService(params ServiceParams) (Service, error) {
	if params.Parser == nil {
		return nil, fmt.Errorf("receipt parser required")
	}
	if params.Learner == nil {
		return nil, fmt.Errorf("corrections learner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxBytes := params.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &service{
		parser:   params.Parser,
		learner:  params.Learner,
		logg:     params.Logger,
		metrics:  params.Metrics,
		maxBytes: maxBytes,
	}, nil
}

func (s *service) Scan(ctx context.Context, householdID uuid.UUID, input ScanInput) (*ParsedReceipt, error) {
	image, mimeType, err := decodeImage(input)
	if err != nil {
		return nil, err
	}
	if len(image) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}

	start := time.Now()
	parsed, err := s.parser.Parse(ctx, image, mimeType)
	if err != nil {
		s.observe("error", start)
		s.logg.Warn(s.logg.WithError(ctx, err), "receipt parse failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeParser, err, fmt.Sprintf("receipt could not be read: %v", err))
	}
	if parsed == nil || len(parsed.Items) == 0 {
		s.observe("empty", start)
		return nil, pkgerrors.New(pkgerrors.CodeParser, "no line items found on receipt")
	}
	s.observe("ok", start)

	s.applyCorrections(ctx, householdID, parsed)
	return parsed, nil
}

func (s *service) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveScan(outcome, time.Since(start))
	}
}

// applyCorrections rewrites parsed lines with what the household taught us.
// A lookup failure leaves the parse untouched.
func (s *service) applyCorrections(ctx context.Context, householdID uuid.UUID, parsed *ParsedReceipt) {
	lines := make([]corrections.Line, len(parsed.Items))
	for i, item := range parsed.Items {
		lines[i] = corrections.Line{
			RawText:      item.RawText,
			Brand:        item.Brand,
			Item:         item.ItemName,
			Unit:         item.Unit,
			Quantity:     item.Count,
			UnitQuantity: item.Units,
		}
	}

	applied, err := s.learner.Apply(ctx, householdID, lines)
	if err != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "learned corrections not applied")
		return
	}
	for i, a := range applied {
		if !a.Corrected {
			continue
		}
		item := &parsed.Items[i]
		item.Brand = a.Line.Brand
		item.ItemName = a.Line.Item
		item.Unit = a.Line.Unit
		item.Count = a.Line.Quantity
		item.Units = a.Line.UnitQuantity
		item.Corrected = true
	}
}

func decodeImage(input ScanInput) ([]byte, string, error) {
	raw := strings.TrimSpace(input.Image)
	if raw == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeBadRequest, "image is required")
	}

	mimeType := strings.TrimSpace(input.MIMEType)
	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, "", pkgerrors.New(pkgerrors.CodeBadRequest, "image data url is malformed")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		raw = payload
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "image must be base64 encoded")
	}
	if len(data) == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeBadRequest, "image is required")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
