package s3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FakeBucket is an in-memory stand-in for the S3 HTTP API covering the calls
// Store makes. Plug it in through Config.HTTPClient in tests.
type FakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	now     time.Time
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// NewFakeBucket returns an empty fake bucket.
func NewFakeBucket() *FakeBucket {
	return &FakeBucket{
		objects: make(map[string]fakeObject),
		now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Keys returns the stored object keys in order.
func (f *FakeBucket) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Do implements aws.HTTPClient.
func (f *FakeBucket) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ""
	if parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2); len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req.URL.Query().Get("prefix")), nil
	case req.Method == http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, f.headers(obj), nil), nil
	case req.Method == http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, []byte(`<Error><Code>NoSuchKey</Code></Error>`)), nil
		}
		return respond(http.StatusOK, f.headers(obj), obj.body), nil
	case req.Method == http.MethodPut:
		body, err := readBody(req)
		if err != nil {
			return nil, err
		}
		meta := make(map[string]string)
		for name, values := range req.Header {
			if lower := strings.ToLower(name); strings.HasPrefix(lower, "x-amz-meta-") && len(values) > 0 {
				meta[strings.TrimPrefix(lower, "x-amz-meta-")] = values[0]
			}
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: meta}
		return respond(http.StatusOK, http.Header{"Etag": {`"fake"`}}, nil), nil
	case req.Method == http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (f *FakeBucket) headers(obj fakeObject) http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(obj.body))},
		"Content-Type":   {obj.contentType},
		"Etag":           {fmt.Sprintf(`"%x"`, len(obj.body))},
		"Last-Modified":  {f.now.Format(http.TimeFormat)},
	}
	for k, v := range obj.metadata {
		h.Set("X-Amz-Meta-"+k, v)
	}
	return h
}

func (f *FakeBucket) list(prefix string) *http.Response {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>%s</LastModified></Contents>",
			k, len(f.objects[k].body), f.now.Format(time.RFC3339))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func respond(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") || req.Header.Get("X-Amz-Decoded-Content-Length") != "" {
		if decoded, err := decodeAWSChunked(raw); err == nil {
			return decoded, nil
		}
	}
	return raw, nil
}

// decodeAWSChunked strips aws-chunked framing, ignoring chunk signatures and
// trailing checksum headers.
func decodeAWSChunked(raw []byte) ([]byte, error) {
	var out []byte
	for {
		i := bytes.Index(raw, []byte("\r\n"))
		if i < 0 {
			return nil, errors.New("malformed chunk header")
		}
		header := string(raw[:i])
		if semi := strings.IndexByte(header, ';'); semi >= 0 {
			header = header[:semi]
		}
		n, err := strconv.ParseInt(strings.TrimSpace(header), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size: %w", err)
		}
		raw = raw[i+2:]
		if n == 0 {
			return out, nil
		}
		if int64(len(raw)) < n+2 {
			return nil, errors.New("short chunk")
		}
		out = append(out, raw[:n]...)
		raw = raw[n+2:]
	}
}
