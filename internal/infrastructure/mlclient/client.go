package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable covers transport failures, timeouts and 5xx answers.
	ErrUnavailable = errors.New("ml service unavailable")
	// ErrRejected is returned when the service refuses the input (4xx).
	ErrRejected = errors.New("ml service rejected request")
)

// CropRequest carries the soil and climate readings for a crop recommendation.
type CropRequest struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

type CropResult struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
	ImageURL   string  `json:"imageUrl"`
}

type FertilizerRequest struct {
	Temperature float64 `json:"temperature"`
	Moisture    float64 `json:"moisture"`
	Rainfall    float64 `json:"rainfall"`
	PH          float64 `json:"ph"`
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	Carbon      float64 `json:"carbon"`
	Soil        string  `json:"soil"`
	Crop        string  `json:"crop"`
}

type FertilizerResult struct {
	Fertilizer  string  `json:"fertilizer"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
}

type DiseaseResult struct {
	Disease    string   `json:"disease"`
	Confidence float64  `json:"confidence"`
	Remedies   []string `json:"remedies"`
}

// Client talks to the inference service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// label accepts either a JSON string or a number; classifiers trained on
// encoded targets answer with the class index.
type label string

func (l *label) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	*l = label(n.String())
	return nil
}

func (c *Client) PredictCrop(ctx context.Context, in CropRequest) (*CropResult, error) {
	var out struct {
		Crop       label   `json:"crop"`
		Confidence float64 `json:"confidence"`
		ImageURL   string  `json:"imageUrl"`
	}
	if err := c.postJSON(ctx, "/predict/crop", in, &out); err != nil {
		return nil, err
	}
	return &CropResult{Crop: string(out.Crop), Confidence: round2(out.Confidence), ImageURL: out.ImageURL}, nil
}

func (c *Client) PredictFertilizer(ctx context.Context, in FertilizerRequest) (*FertilizerResult, error) {
	var out struct {
		Fertilizer  label   `json:"fertilizer"`
		Confidence  float64 `json:"confidence"`
		Description string  `json:"description"`
		ImageURL    string  `json:"imageUrl"`
	}
	if err := c.postJSON(ctx, "/predict/fertilizer", in, &out); err != nil {
		return nil, err
	}
	return &FertilizerResult{
		Fertilizer:  string(out.Fertilizer),
		Confidence:  round2(out.Confidence),
		Description: out.Description,
		ImageURL:    out.ImageURL,
	}, nil
}

// PredictDisease uploads the leaf image as multipart field "file".
func (c *Client) PredictDisease(ctx context.Context, filename string, image io.Reader) (*DiseaseResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict/disease", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out DiseaseResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	out.Confidence = round2(out.Confidence)
	if out.Remedies == nil {
		out.Remedies = []string{}
	}
	return &out, nil
}

// Health calls the service root.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail := readDetail(resp.Body)
		if resp.StatusCode < 500 {
			return fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, detail)
		}
		return fmt.Errorf("%w: %d %s", ErrUnavailable, resp.StatusCode, detail)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

// readDetail extracts the "detail" field error bodies carry, falling back to raw text.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(raw))
}

func round2(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	return v
}
