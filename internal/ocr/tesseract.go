package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the gosseract-backed Engine implementation.
//
// One gosseract client is created by Init and reused for every Recognize
// call until Close, amortizing the engine's startup cost across a batch of
// cells. The zero value is not usable; construct with NewTesseract.
type Tesseract struct {
	params Parameters
	client *gosseract.Client
}

// NewTesseract constructs a Tesseract engine configured for bingo cells:
// English, single-word page segmentation. Use SetParameters to override.
func NewTesseract() *Tesseract {
	return &Tesseract{
		params: Parameters{
			Language:    "eng",
			PageSegMode: int(gosseract.PSM_SINGLE_WORD),
		},
	}
}

// Init creates the underlying gosseract client and applies the configured
// parameters. Calling Init on a running engine is a no-op.
func (t *Tesseract) Init(ctx context.Context) error {
	if t.client != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	client := gosseract.NewClient()
	if err := applyParameters(client, t.params); err != nil {
		client.Close()
		return err
	}
	t.client = client
	return nil
}

// SetParameters merges the non-zero fields of p into the engine
// configuration and applies them immediately when the engine is running.
func (t *Tesseract) SetParameters(p Parameters) error {
	if p.Language != "" {
		t.params.Language = p.Language
	}
	if p.PageSegMode > 0 {
		t.params.PageSegMode = p.PageSegMode
	}
	if p.Whitelist != "" {
		t.params.Whitelist = p.Whitelist
	}
	if t.client == nil {
		return nil
	}
	return applyParameters(t.client, t.params)
}

// Recognize runs Tesseract over a single cell image. The confidence is the
// mean word-level confidence reported by Tesseract (0-100); an image with
// no recognizable words yields an empty text with confidence 0.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Recognition, error) {
	if t.client == nil {
		return Recognition{}, fmt.Errorf("tesseract engine not initialized")
	}
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Recognition{}, fmt.Errorf("encode cell image: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Recognition{}, fmt.Errorf("set cell image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("OCR failed: %w", err)
	}

	return Recognition{
		Text:       text,
		Confidence: meanWordConfidence(t.client),
	}, nil
}

// Close releases the gosseract client. Safe to call on an engine that was
// never initialized.
func (t *Tesseract) Close(ctx context.Context) error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func applyParameters(client *gosseract.Client, p Parameters) error {
	if p.Language != "" {
		if err := client.SetLanguage(p.Language); err != nil {
			return fmt.Errorf("set language: %w", err)
		}
	}
	if p.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(p.PageSegMode)); err != nil {
			return fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if p.Whitelist != "" {
		if err := client.SetWhitelist(p.Whitelist); err != nil {
			return fmt.Errorf("set whitelist: %w", err)
		}
	}
	return nil
}

// meanWordConfidence averages Tesseract's word-level confidences. Box
// extraction can fail on some configurations; that degrades to confidence
// 0 rather than failing the cell.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}
