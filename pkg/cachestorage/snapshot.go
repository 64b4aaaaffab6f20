package cachestorage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"sync"
	"time"
)

// Snapshot buffers the response body and returns its HTTP/1.1 wire form.
// The response body is replaced so the caller can still consume it.
func Snapshot(res *http.Response) ([]byte, error) {
	var b []byte
	if res.Body != nil {
		var err error
		b, err = io.ReadAll(res.Body)
		_ = res.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	res.Body = io.NopCloser(bytes.NewReader(b))

	return encode(res, res.Header.Clone(), b)
}

func encode(res *http.Response, header http.Header, b []byte) ([]byte, error) {
	stored := *res
	stored.Header = header
	if stored.Header == nil {
		stored.Header = http.Header{}
	}
	if stored.Header.Get("Date") == "" {
		stored.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}
	stored.Header.Set("Content-Length", fmt.Sprint(len(b)))
	stored.ContentLength = int64(len(b))
	stored.TransferEncoding = nil
	stored.Trailer = nil
	stored.Close = false
	if stored.ProtoMajor == 0 {
		stored.Proto, stored.ProtoMajor, stored.ProtoMinor = "HTTP/1.1", 1, 1
	}
	stored.Body = io.NopCloser(bytes.NewReader(b))

	return httputil.DumpResponse(&stored, true)
}

// teeBody copies the body into a buffer while the client reads it
type teeBody struct {
	body       io.ReadCloser
	mu         sync.Mutex
	buf        bytes.Buffer
	finished   bool
	onComplete func()
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.body.Read(p)

	t.mu.Lock()
	if !t.finished {
		t.buf.Write(p[:n])
		if err != nil {
			t.finished = true
			if err == io.EOF {
				defer t.onComplete()
			}
		}
	}
	t.mu.Unlock()

	return n, err
}

// Close drops the copy when the body was not read until the end
func (t *teeBody) Close() error {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	return t.body.Close()
}

// Tee streams the response body to the caller and calls onComplete once the body was
// entirely read. The snapshot function encodes the response as Snapshot does.
// Nothing is called when the body is closed early or the read fails.
func Tee(res *http.Response, onComplete func(snapshot func() ([]byte, error))) {
	if res.Body == nil {
		res.Body = http.NoBody
	}

	header := res.Header.Clone()
	template := *res
	template.Body = nil
	t := &teeBody{body: res.Body}
	t.onComplete = func() {
		b := append([]byte{}, t.buf.Bytes()...)
		onComplete(func() ([]byte, error) {
			return encode(&template, header, b)
		})
	}
	res.Body = t
}

// Restore parses a stored snapshot back into a response bound to req
func Restore(snapshot []byte, req *http.Request) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(snapshot)), req)
}
