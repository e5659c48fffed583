package stream

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrMalformed     = errors.New("malformed range")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is an inclusive byte range.
type Range struct {
	Start int64
	End   int64
}

func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange resolves a Range header against a resource of size bytes.
// A missing start means 0 and a missing end means the last byte; the end is
// clamped to the last byte. Only the first range of a list is used.
func ParseRange(header string, size int64) (Range, error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return Range{}, ErrMalformed
	}
	if first, _, found := strings.Cut(spec, ","); found {
		spec = first
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return Range{}, ErrMalformed
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	r := Range{Start: 0, End: size - 1}
	if startStr != "" {
		v, err := strconv.ParseInt(startStr, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return Range{}, ErrUnsatisfiable
		}
		if err != nil || v < 0 {
			return Range{}, ErrMalformed
		}
		r.Start = v
	}
	if endStr != "" {
		// An end past int64 is still past the last byte.
		v, err := strconv.ParseInt(endStr, 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange):
			v = size - 1
		case err != nil || v < 0:
			return Range{}, ErrMalformed
		}
		r.End = min(v, size-1)
	}

	if size <= 0 || r.Start >= size || r.Start > r.End {
		return Range{}, ErrUnsatisfiable
	}
	return r, nil
}

// Serve writes data as video/mp4, honouring a single byte range. HEAD
// requests get the same headers without a body.
func Serve(w http.ResponseWriter, r *http.Request, data []byte) {
	size := int64(len(data))
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", "video/mp4")

	body := data
	status := http.StatusOK

	if header := r.Header.Get("Range"); header != "" {
		rng, err := ParseRange(header, size)
		if err != nil {
			h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			h.Del("Content-Type")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		body = data[rng.Start : rng.End+1]
		status = http.StatusPartialContent
		h.Set("Content-Range", rng.ContentRange(size))
	}

	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := bytes.NewReader(body).WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Int("bytes", len(body)).Msg("stream write aborted")
	}
}
