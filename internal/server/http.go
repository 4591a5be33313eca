package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

// ParamJSON is one parameter in the JSON read API
type ParamJSON struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   any    `json:"value"`
	State   string `json:"state"`
	Index   int    `json:"index"`
	Changes uint64 `json:"changes"`
	Unit    string `json:"unit,omitempty"`
	Group   string `json:"group,omitempty"`
	Option  string `json:"option,omitempty"`
}

// ParamsJSON is the body of GET /api/params
type ParamsJSON struct {
	Generation uint64      `json:"generation"`
	Params     []ParamJSON `json:"params"`
}

// ErrorJSON is the body of every API error
type ErrorJSON struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jsonValue renders a value as a JSON bool or a number literal in its
// canonical text, so float32 values are not widened to float64 digits.
func jsonValue(v param.Value) any {
	if b, ok := v.AsBool(); ok {
		return b
	}
	return json.Number(v.String())
}

func paramJSON(reg *param.Registry, def param.Definition, index int, v param.Value) ParamJSON {
	p := ParamJSON{
		Name:  def.Name,
		Type:  def.Type.String(),
		Value: jsonValue(v),
		State: param.StateDefault.String(),
		Index: index,
		Unit:  def.Unit,
		Group: def.Group,
	}
	if !v.Equal(def.Default) {
		p.State = param.StateModified.String()
	}
	p.Changes, _ = reg.ChangeCount(def.Name)
	if i, ok := v.AsInt32(); ok {
		if opt, ok := def.OptionByValue(i); ok {
			p.Option = opt.Label
		}
	}
	return p
}

// handleListParams serves GET /api/params
func (s *Server) handleListParams(w http.ResponseWriter, r *http.Request) {
	gen := s.reg.Generation()
	defs := s.reg.Definitions()
	records := s.reg.ExportAll()

	out := ParamsJSON{Generation: gen, Params: make([]ParamJSON, 0, len(records))}
	for i, rec := range records {
		if i >= len(defs) {
			break
		}
		out.Params = append(out.Params, paramJSON(s.reg, defs[i], i, rec.Value))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetParam serves GET /api/params/{name}
func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	def, err := s.reg.Lookup(name)
	if err != nil {
		writeParamError(w, err)
		return
	}
	v, err := s.reg.Get(name)
	if err != nil {
		writeParamError(w, err)
		return
	}
	idx, _ := s.reg.IndexOf(name)
	writeJSON(w, http.StatusOK, paramJSON(s.reg, def, idx, v))
}

// handleHealth serves GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"params":     s.reg.Len(),
		"generation": s.reg.Generation(),
		"sessions":   s.SessionCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeParamError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	if pe, ok := param.AsError(err); ok {
		code = strings.ReplaceAll(strings.ToLower(pe.Type.String()), " ", "_")
		if pe.Type == param.ErrTypeUnknownParameter {
			status = http.StatusNotFound
		} else {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, ErrorJSON{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// statusWriter records the status code for request logging
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// logRequests logs each API request after it is served
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}
