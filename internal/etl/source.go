package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BartekS5/sap-etl/pkg/logger"
	"github.com/BartekS5/sap-etl/pkg/models"
)

// HTTPSource reads the mock SAP REST API: GET {base}/{table}?page=N
// answering {"results": [...]}.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// FetchPage returns the records of one page. A non-200 answer is logged
// and reported as an empty page, which ends pagination.
func (s *HTTPSource) FetchPage(ctx context.Context, endpoint string, page int) (*models.Table, error) {
	u := fmt.Sprintf("%s/%s?page=%s", s.BaseURL, url.PathEscape(endpoint), strconv.Itoa(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %d: %w", endpoint, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.Warnf("Failed to fetch %s page %d, status code: %d", endpoint, page, resp.StatusCode)
		return models.NewTable(), nil
	}

	t, err := DecodeResults(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s page %d: %w", endpoint, page, err)
	}
	return t, nil
}

// DecodeResults reads the "results" array of a page body into a table.
// Columns follow the order keys are first seen; numbers keep their exact
// text and null becomes a missing cell.
func DecodeResults(r io.Reader) (*models.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	t := models.NewTable()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if key != "results" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if err := decodeRecords(dec, t); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeRecords(dec *json.Decoder, t *models.Table) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("results: want array, got %v", tok)
	}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		rec := make(models.Record)
		var keys []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("record key: want string, got %v", tok)
			}
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("record field %q: %w", key, err)
			}
			cell, err := jsonCell(v)
			if err != nil {
				return fmt.Errorf("record field %q: %w", key, err)
			}
			rec[key] = cell
			keys = append(keys, key)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		t.Append(rec, keys...)
	}
	return expectDelim(dec, ']')
}

func jsonCell(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("unexpected end of JSON, want %q", want)
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("want %q, got %v", want, tok)
	}
	return nil
}
