package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single NDJSON record.
const maxLineSize = 1024 * 1024

// Response is a successful (status < 400) reply.
// Buffered responses hold the whole body; streaming responses must be
// consumed with Lines and closed by the caller.
type Response struct {
	StatusCode int
	Header     http.Header
	Truncated  bool // the body was cut at Request.MaxBodyBytes

	op       string
	data     []byte
	buffered bool

	ctx     context.Context
	body    io.ReadCloser
	release func()
	logger  zerolog.Logger
}

// Bytes returns the buffered body, reading a streaming body to the end if needed.
func (r *Response) Bytes() ([]byte, error) {
	if r.buffered {
		return r.data, nil
	}
	defer r.Close()
	data, err := io.ReadAll(r.body)
	if err != nil {
		return nil, classify(r.ctx, r.op, err)
	}
	r.data = data
	r.buffered = true
	return data, nil
}

// Decode unmarshals the body as JSON into v.
func (r *Response) Decode(v any) error {
	data, err := r.Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Kind: KindDecode, Op: r.op, Err: err}
	}
	return nil
}

// Lines returns an iterator over the body's NDJSON records.
func (r *Response) Lines() *LineStream {
	var src io.Reader
	if r.buffered {
		src = bytes.NewReader(r.data)
	} else {
		src = r.body
	}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &LineStream{resp: r, scanner: sc, logger: r.logger}
}

// Close releases the underlying connection. Safe to call more than once.
func (r *Response) Close() error {
	var err error
	if r.body != nil {
		err = r.body.Close()
		r.body = nil
	}
	if r.release != nil {
		r.release()
		r.release = nil
	}
	return err
}

// LineStream yields one parsed JSON value per non-empty line. Lines that are
// not valid JSON are skipped and counted, never fatal.
type LineStream struct {
	resp    *Response
	scanner *bufio.Scanner
	current gjson.Result
	skipped int
	err     error
	logger  zerolog.Logger
}

// Next advances to the next valid record. It returns false at end of stream or on error.
func (s *LineStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			s.skipped++
			s.logger.Warn().Str("op", s.resp.op).Int("bytes", len(line)).Msg("skipping malformed stream line")
			continue
		}
		// The scanner reuses its buffer; parse a copy.
		s.current = gjson.Parse(string(line))
		return true
	}
	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			s.err = &Error{Kind: KindDecode, Op: s.resp.op, Err: err}
		} else {
			s.err = classify(s.ctxOrBackground(), s.resp.op, err)
		}
	}
	return false
}

func (s *LineStream) ctxOrBackground() context.Context {
	if s.resp.ctx != nil {
		return s.resp.ctx
	}
	return context.Background()
}

// Value returns the current record.
func (s *LineStream) Value() gjson.Result { return s.current }

// Err returns the error that stopped iteration, if any.
func (s *LineStream) Err() error { return s.err }

// Skipped reports how many malformed lines were dropped so far.
func (s *LineStream) Skipped() int { return s.skipped }

// Close releases the response.
func (s *LineStream) Close() error { return s.resp.Close() }
