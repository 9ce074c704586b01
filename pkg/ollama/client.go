// Package ollama adapts an Ollama vision model into the engine's detector
// interface. The model is asked for the dominant subject's bounding box and
// the answer is converted into a single boost region. It is an alternative
// to the local cascade detector for images where faces are not the story.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/smartthumb/pkg/face"
)

// subjectPrompt asks for machine-readable output only. Vision models tend
// to wrap JSON in prose or fences, so the response is sanitized before
// parsing.
const subjectPrompt = `You are an image subject locator.

Return JSON only:
{
  "label": "string",
  "confidence": 0.0,
  "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject (prefer
  people/vehicles/animals; else the most central salient object).
- If no subject is found, return {"label":"none","confidence":0.0,"box":{"x":0,"y":0,"w":0,"h":0}}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const requestTimeout = 300 * time.Second // vision models on CPU are slow

// Detector queries an Ollama server for the dominant subject of an image.
type Detector struct {
	client *api.Client
	model  string
}

// New creates a detector talking to the Ollama server at serverURL.
func New(serverURL, model string) (*Detector, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Detector{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Detect sends img to the model and returns the subject box as a region
// in image coordinates. A "none" answer or an unparseable response yields
// zero regions without error; transport failures are returned to the
// caller, who downgrades them to "no boosts".
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]face.Region, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("ollama: encoding image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: subjectPrompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var response string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: chat: %w", err)
	}

	subj, ok := parseSubject(response)
	if !ok || strings.EqualFold(subj.Label, "none") {
		return nil, nil
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rect := image.Rect(
		b.Min.X+int(clamp(subj.Box.X, 0, 1)*w+0.5),
		b.Min.Y+int(clamp(subj.Box.Y, 0, 1)*h+0.5),
		b.Min.X+int(clamp(subj.Box.X+subj.Box.W, 0, 1)*w+0.5),
		b.Min.Y+int(clamp(subj.Box.Y+subj.Box.H, 0, 1)*h+0.5),
	)
	if rect.Empty() {
		return nil, nil
	}
	return []face.Region{{Rect: rect, Confidence: clamp(subj.Confidence, 0, 1)}}, nil
}

type subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"box"`
}

// parseSubject extracts the subject JSON from a model response. It
// tolerates code fences and surrounding prose; anything it cannot parse
// is reported as no subject.
func parseSubject(raw string) (subject, bool) {
	raw = sanitizeModelJSON(raw)

	var s subject
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s, true
	}

	// Conservative brace-slice fallback for responses with stray prose.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &s); err == nil {
			return s, true
		}
	}
	return subject{}, false
}

// sanitizeModelJSON strips code fences and stray backticks from a model
// response.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.Trim(strings.TrimSpace(raw), "`")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
