package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/effect/state"
)

// maxBody bounds request bodies; state documents are a few hundred bytes.
const maxBody = 64 << 10

// Param is the JSON view of one parameter.
type Param struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Unit    string  `json:"unit"`
}

// Status is the body of GET /api/status.
type Status struct {
	Meters *processor.Meters `json:"meters,omitempty"`
	Faults *processor.Faults `json:"faults,omitempty"`
}

type valueRequest struct {
	Value *float64 `json:"value"`
}

func (s *Server) param(d params.Descriptor) Param {
	v := s.store.Get(d.ID)
	return Param{
		Name:    d.Name,
		Value:   v,
		Display: d.Format(v),
		Min:     d.Min,
		Max:     d.Max,
		Default: d.Default,
		Unit:    d.Unit,
	}
}

func (s *Server) params() []Param {
	descs := params.Descriptors()
	out := make([]Param, len(descs))
	for i, d := range descs {
		out[i] = s.param(d)
	}
	return out
}

func (s *Server) handleListParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.params())
}

// handleSetParams applies a name to value map. Every name is checked
// before any value is written.
func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	var req map[string]float64
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	for name := range req {
		if _, err := params.Lookup(name); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	for name, v := range req {
		if err := s.store.SetByName(name, v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "handleSetParams",
		"count":    len(req),
	}).Debug("Parameters updated")

	writeJSON(w, http.StatusOK, s.params())
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	d, err := params.Lookup(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.param(d))
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	d, err := params.Lookup(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req valueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing value"))
		return
	}
	if err := s.store.Set(d.ID, *req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.param(d))
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, state.PresetNames())
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, err := state.Preset(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if _, err := doc.Apply(s.store); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "handleApplyPreset",
		"preset":   name,
	}).Info("Preset applied")

	writeJSON(w, http.StatusOK, s.params())
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	data, err := state.Save(s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := state.Load(s.store, data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.params())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var st Status
	if s.source != nil {
		m := s.source.Meters()
		f := s.source.Faults()
		st.Meters = &m
		st.Faults = &f
	}
	writeJSON(w, http.StatusOK, st)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeJSON",
			"error":    err.Error(),
		}).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
