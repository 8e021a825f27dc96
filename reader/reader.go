package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://data.rag.ac.cn"

// SearchMode selects how the paper service ranks results.
type SearchMode string

const (
	SearchModeBM25   SearchMode = "bm25"
	SearchModeVector SearchMode = "vector"
	SearchModeHybrid SearchMode = "hybrid"
)

// Reader is the client for the arXiv paper-data service. All content is
// fetched through a single endpoint multiplexed by the "type" query parameter.
type Reader struct {
	token   string
	baseURL string
	client  *resty.Client
}

type Option func(*Reader)

// WithBaseURL overrides the paper service base URL.
func WithBaseURL(baseURL string) Option {
	return func(r *Reader) { r.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithTimeout overrides the per-request timeout (default 60s).
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) { r.client.SetTimeout(d) }
}

// WithHTTPClient substitutes the underlying HTTP client. Tests use this
// to point the Reader at an httptest server transport.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) { r.client = resty.NewWithClient(c).SetTimeout(60 * time.Second) }
}

// NewReader creates a Reader. The token is optional for free papers and is
// sent as a bearer Authorization header when present.
func NewReader(token string, opts ...Option) *Reader {
	r := &Reader{
		token:   token,
		baseURL: defaultBaseURL,
		client:  resty.New().SetTimeout(60 * time.Second),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Reader) endpoint() string {
	return r.baseURL + "/arxiv/"
}

// get issues one GET against the arxiv endpoint and decodes the JSON body
// into out. Service-level failures are mapped onto the typed error set.
func (r *Reader) get(ctx context.Context, params map[string]string, out any) error {
	req := r.client.R().SetContext(ctx).SetQueryParams(params)
	if r.token != "" {
		req.SetHeader("Authorization", "Bearer "+r.token)
	}

	resp, err := req.Get(r.endpoint())
	if err != nil {
		return fmt.Errorf("paper service request: %w", err)
	}

	if err := statusError(resp.StatusCode(), resp.String()); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decoding paper service response: %w", err)
	}
	return nil
}

// SearchOptions are the optional knobs for Search. The zero value asks for
// ten hybrid-ranked results with equal BM25/vector weighting.
type SearchOptions struct {
	Size           int
	Offset         int
	Mode           SearchMode
	BM25Weight     float64
	VectorWeight   float64
	Categories     []string
	Authors        []string
	MinCitation    int // applied only when HasMinCitation is set
	HasMinCitation bool
	DateFrom       string // YYYY-MM-DD
	DateTo         string // YYYY-MM-DD
}

// Search runs a ranked paper search. The query must be non-empty.
func (r *Reader) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", ErrInvalidArgument)
	}

	if opts.Size <= 0 {
		opts.Size = 10
	}
	if opts.Mode == "" {
		opts.Mode = SearchModeHybrid
	}

	params := map[string]string{
		"type":        "retrieve",
		"query":       query,
		"size":        strconv.Itoa(opts.Size),
		"offset":      strconv.Itoa(opts.Offset),
		"search_mode": string(opts.Mode),
	}

	if opts.Mode == SearchModeHybrid {
		bm25, vector := opts.BM25Weight, opts.VectorWeight
		if bm25 == 0 && vector == 0 {
			bm25, vector = 0.5, 0.5
		}
		params["bm25_weight"] = strconv.FormatFloat(bm25, 'f', -1, 64)
		params["vector_weight"] = strconv.FormatFloat(vector, 'f', -1, 64)
	}

	if len(opts.Categories) > 0 {
		params["categories"] = strings.Join(opts.Categories, ",")
	}
	if len(opts.Authors) > 0 {
		params["authors"] = strings.Join(opts.Authors, ",")
	}
	if opts.HasMinCitation {
		params["min_citation"] = strconv.Itoa(opts.MinCitation)
	}
	if opts.DateFrom != "" {
		params["date_from"] = opts.DateFrom
	}
	if opts.DateTo != "" {
		params["date_to"] = opts.DateTo
	}

	var result SearchResponse
	if err := r.get(ctx, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Head fetches paper metadata: title, abstract, authors, section overview
// with per-section TLDRs and token counts.
func (r *Reader) Head(ctx context.Context, arxivID string) (*PaperHead, error) {
	var head PaperHead
	err := r.get(ctx, map[string]string{"arxiv_id": arxivID, "type": "head"}, &head)
	if err != nil {
		return nil, err
	}

	head.ArxivID = arxivID
	return &head, nil
}

// Section fetches the content of one named section.
func (r *Reader) Section(ctx context.Context, arxivID, sectionName string) (string, error) {
	var result struct {
		Content string `json:"content"`
	}
	err := r.get(ctx, map[string]string{
		"arxiv_id": arxivID,
		"type":     "section",
		"section":  sectionName,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// Raw fetches the full paper content as markdown.
func (r *Reader) Raw(ctx context.Context, arxivID string) (string, error) {
	var result struct {
		Raw string `json:"raw"`
	}
	err := r.get(ctx, map[string]string{"arxiv_id": arxivID, "type": "raw"}, &result)
	if err != nil {
		return "", err
	}
	return result.Raw, nil
}

// Preview fetches the first slice of the paper along with a truncation flag.
func (r *Reader) Preview(ctx context.Context, arxivID string) (*Preview, error) {
	var preview Preview
	err := r.get(ctx, map[string]string{"arxiv_id": arxivID, "type": "preview"}, &preview)
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// JSON fetches the complete structured document with all sections and metadata.
func (r *Reader) JSON(ctx context.Context, arxivID string) (map[string]any, error) {
	var doc map[string]any
	err := r.get(ctx, map[string]string{"arxiv_id": arxivID, "type": "json"}, &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// MarkdownURL returns the URL of the rendered HTML view of the paper.
// No request is issued; the endpoint serves HTML, not JSON.
func (r *Reader) MarkdownURL(arxivID string) string {
	query := url.Values{}
	query.Set("arxiv_id", arxivID)
	query.Set("type", "markdown")
	return r.endpoint() + "?" + query.Encode()
}
