package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// ContactsService covers /contacts.
type ContactsService struct {
	c *Client
}

// Query returns the query string List sends for opts.
func (o ContactListOptions) Query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	return q
}

// List returns one page of contacts.
func (s *ContactsService) List(ctx context.Context, opts ContactListOptions) (Page[Contact], error) {
	body, err := s.c.doJSON(ctx, http.MethodGet, "/contacts", opts.Query(), nil)
	if err != nil {
		return Page[Contact]{}, err
	}
	return decodePage[Contact](body, "contacts")
}

// Create adds a contact.
func (s *ContactsService) Create(ctx context.Context, in ContactInput) (*Contact, error) {
	body, err := s.c.doJSON(ctx, http.MethodPost, "/contacts", nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Contact](body, "contact")
}

// Update replaces a contact's fields.
func (s *ContactsService) Update(ctx context.Context, id string, in ContactInput) (*Contact, error) {
	body, err := s.c.doJSON(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Contact](body, "contact")
}

// Delete removes a contact.
func (s *ContactsService) Delete(ctx context.Context, id string) error {
	_, err := s.c.doJSON(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil, nil)
	return err
}

// ProgressFunc receives upload progress as bytes sent out of total.
type ProgressFunc func(sent, total int64)

// Upload posts a contact file as multipart field "file". The body is built
// in memory (files are size-capped before they get here) so the request has
// an exact Content-Length and progress reports against a known total.
func (s *ContactsService) Upload(ctx context.Context, filename string, file io.Reader, progress ProgressFunc) (*ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	total := int64(buf.Len())
	var reader io.Reader = &buf
	if progress != nil {
		reader = &progressReader{r: &buf, total: total, fn: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.endpoint("/contacts/upload", nil), reader)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := s.c.send(req, "/contacts/upload")
	if err != nil {
		return nil, err
	}

	var result ImportResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding import result: %w", err)
	}
	return &result, nil
}

// progressReader reports bytes consumed by the transport.
type progressReader struct {
	mu    sync.Mutex
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.fn(sent, p.total)
	}
	return n, err
}
