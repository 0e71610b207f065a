package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// decodeBody decodes the JSON request body into v, writing the error
// response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return false
	}
	return true
}

// urlPool resolves the pool named in the URL, writing the error response
// when it is malformed or unknown.
func (a *API) urlPool(w http.ResponseWriter, r *http.Request) (*pool.Pool, bool) {
	id := chi.URLParam(r, PoolURLParam)
	if !pool.ValidID(id) {
		ErrMalformedPoolID.With(id).Write(w)
		return nil, false
	}
	p, ok := a.pools.Pool(id)
	if !ok {
		ErrPoolNotFound.With(id).Write(w)
		return nil, false
	}
	return p, true
}

// urlHash parses a 32 byte hex URL parameter.
func urlHash(w http.ResponseWriter, r *http.Request, param string) (types.Hash, bool) {
	h, err := types.HexToHash(chi.URLParam(r, param))
	if err != nil {
		ErrMalformedParam.Withf("%s: %v", param, err).Write(w)
		return types.Hash{}, false
	}
	return h, true
}

// pagination reads the from and limit query parameters. The limit defaults
// to DefaultPageSize and is capped at MaxPageSize.
func pagination(w http.ResponseWriter, r *http.Request) (uint64, int, bool) {
	var from uint64
	limit := DefaultPageSize
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			ErrMalformedParam.Withf("from: %v", err).Write(w)
			return 0, 0, false
		}
		from = v
	}
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			ErrMalformedParam.Withf("limit: %q", s).Write(w)
			return 0, 0, false
		}
		limit = min(v, MaxPageSize)
	}
	return from, limit, true
}
