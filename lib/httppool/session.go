// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httppool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/netutil"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/version"
)

// Session is the live HTTP handle shared by every borrower of a Pool.
type Session struct {
	pool      *Pool
	client    *http.Client
	transport *http.Transport
	header    http.Header
	created   time.Time
}

func newSession(p *Pool) *Session {
	dialer := &net.Dialer{
		Timeout:   p.config.Timeout,
		KeepAlive: p.config.KeepAliveExpiry,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxConnsPerHost:     p.config.MaxConnections,
		MaxIdleConns:        p.config.MaxKeepAlive,
		MaxIdleConnsPerHost: p.config.MaxKeepAlive,
		IdleConnTimeout:     p.config.KeepAliveExpiry,
		TLSHandshakeTimeout: p.config.Timeout,
		// Responses are decoded by netutil.ReadEncoded so zstd can be
		// negotiated alongside gzip and deflate.
		DisableCompression: true,
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	header.Set("Accept-Encoding", netutil.AcceptEncoding)
	header.Set("User-Agent", version.UserAgent())
	return &Session{
		pool:      p,
		client:    &http.Client{Transport: transport},
		transport: transport,
		header:    header,
		created:   p.config.Clock.Now(),
	}
}

func (s *Session) close() {
	s.transport.CloseIdleConnections()
}

// Created returns when the session was allocated.
func (s *Session) Created() time.Time { return s.created }

// Do performs one request against endpoint, resolved relative to the
// pool's base URL unless it is already absolute.
//
// Any HTTP status is a successful Do; classifying statuses is the
// caller's concern. Transport and body-read failures are returned as
// *failure.Error. A metric is recorded in every case.
func (s *Session) Do(ctx context.Context, method, endpoint string, options ...RequestOption) (*Response, error) {
	var settings request
	for _, option := range options {
		option(&settings)
	}
	timeout := s.pool.config.Timeout
	if settings.timeout > 0 {
		timeout = settings.timeout
	}
	operation := method + " " + endpoint

	metric := CallMetric{
		Method:   method,
		Endpoint: endpoint,
		Time:     s.pool.config.Clock.Now(),
	}
	response, err := s.do(ctx, method, endpoint, &settings, timeout, &metric)
	metric.Duration = s.pool.config.Clock.Now().Sub(metric.Time)
	if err != nil {
		metric.Error = err.Error()
	}
	s.pool.metrics.Record(metric)

	if err != nil {
		return nil, failure.New(classify(ctx, err), operation, err)
	}
	return response, nil
}

func (s *Session) do(ctx context.Context, method, endpoint string, options *request, timeout time.Duration, metric *CallMetric) (*Response, error) {
	body := options.body
	if options.hasJSON {
		encoded, err := json.Marshal(options.jsonValue)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = encoded
	}
	metric.RequestBytes = int64(len(body))

	target := s.resolve(endpoint)
	if len(options.query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + options.query.Encode()
	}

	requestContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpRequest, err := http.NewRequestWithContext(requestContext, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range s.header {
		httpRequest.Header[key] = values
	}
	if options.contentType != "" {
		httpRequest.Header.Set("Content-Type", options.contentType)
	}
	for key, values := range options.header {
		httpRequest.Header[key] = values
	}

	httpResponse, err := s.client.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()
	metric.StatusCode = httpResponse.StatusCode

	data, err := netutil.ReadEncoded(httpResponse.Body, httpResponse.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	metric.ResponseBytes = int64(len(data))

	header := httpResponse.Header.Clone()
	header.Del("Content-Encoding")
	return &Response{
		StatusCode: httpResponse.StatusCode,
		Header:     header,
		Body:       data,
	}, nil
}

func (s *Session) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return s.pool.baseURL.String() + "/" + strings.TrimLeft(endpoint, "/")
}

// classify maps a request error to a failure kind. A deadline that
// expired while the caller's context is still live is the per-request
// timeout.
func classify(parent context.Context, err error) failure.Kind {
	if parent.Err() != nil {
		if errors.Is(parent.Err(), context.DeadlineExceeded) {
			return failure.KindTimeout
		}
		return failure.KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.KindTimeout
	}
	return failure.KindOf(err)
}
