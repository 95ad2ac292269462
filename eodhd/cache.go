package eodhd

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/microcap/date"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// End of day bars of a range that ended before today are final, they are
// cached for good. A range that reaches today is never cached: the close of
// the day may not be published yet. Requests without a range, like searches,
// are cached for the day.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date // date.Today when nil
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If none is found, it proceeds with the actual HTTP
// request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key, cacheable := c.key(req)
	if cacheable {
		if cachedResp, err := c.get(key, req); err == nil { // Cache hit
			return cachedResp, nil
		}
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if !cacheable || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if bytes.Equal(bytes.TrimSpace(body), []byte("[]")) {
		// no bar yet, ask again next time.
		return resp, nil
	}

	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// key returns the cache key of req, and false when req must not be cached.
func (c *diskCache) key(req *http.Request) (string, bool) {
	today := date.Today()
	if c.today != nil {
		today = c.today()
	}
	scope := "final"
	if to := req.URL.Query().Get("to"); to != "" {
		end, err := date.Parse(to)
		if err != nil || !end.Before(today) {
			return "", false
		}
	} else {
		scope = today.String()
	}
	key := fmt.Sprintf("%s %s %s", scope, req.Method, req.URL.String())
	return fmt.Sprintf("eodhd-%x", sha1.Sum([]byte(key))), true
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(c.dir, key))
	if err != nil {
		return err
	}

	_, err = f.Write(content)
	f.Close()
	return err
}
