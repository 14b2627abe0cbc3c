package client

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
)

// decodingTransport wraps an http.RoundTripper so that callers always read a
// plain UTF-8 body: gzip, brotli and zstd encodings are removed, and textual
// bodies declared in another charset are transcoded.
type decodingTransport struct {
	transport http.RoundTripper
}

func newDecodingTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decodingTransport{transport: base}
}

// RoundTrip advertises the supported encodings and decodes the response body.
func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	}

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// HEAD, 204 and 304 responses carry nothing to decode.
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	if err := decompressBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	if err := transcodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func decompressBody(resp *http.Response) error {
	var reader io.ReadCloser
	switch parseContentEncoding(resp.Header.Get("Content-Encoding")) {
	case "":
		return nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		reader = gz
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return err
		}
		reader = zr.IOReadCloser()
	default:
		// Unknown encoding, leave the body untouched.
		return nil
	}

	resp.Body = &layeredReadCloser{reader: reader, underlying: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// transcodeBody converts textual bodies with a declared non UTF-8 charset.
// Binary bodies (images) are left alone.
func transcodeBody(resp *http.Response) error {
	contentType := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !isTextual(mediaType) {
		return nil
	}
	declared := strings.ToLower(params["charset"])
	if declared == "" || declared == "utf-8" || declared == "utf8" {
		return nil
	}

	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return err
	}
	resp.Body = &layeredReadCloser{reader: io.NopCloser(reader), underlying: resp.Body}
	params["charset"] = "utf-8"
	resp.Header.Set("Content-Type", mime.FormatMediaType(mediaType, params))
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return nil
}

func isTextual(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") ||
		strings.HasSuffix(mediaType, "json") ||
		strings.HasSuffix(mediaType, "javascript")
}

// layeredReadCloser reads from a decoding reader and closes both it and the
// body it wraps.
type layeredReadCloser struct {
	reader     io.ReadCloser
	underlying io.ReadCloser
}

func (l *layeredReadCloser) Read(p []byte) (int, error) {
	return l.reader.Read(p)
}

func (l *layeredReadCloser) Close() error {
	readerErr := l.reader.Close()
	bodyErr := l.underlying.Close()
	if readerErr != nil {
		return readerErr
	}
	return bodyErr
}

// parseContentEncoding returns the outermost (last applied) encoding of a
// Content-Encoding header, lowercased, or "" when none.
func parseContentEncoding(header string) string {
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
