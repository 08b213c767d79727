package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"pv_optimizer/internal/log"
	"pv_optimizer/internal/simulator"
)

// NewRouter mounts the health check, the WebSocket endpoint and the
// synchronous JSON API on one router.
func NewRouter(hub *Hub, engine *simulator.Engine) *mux.Router {
	api := &restAPI{engine: engine}

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	router.Handle("/ws", NewHandler(hub, engine))
	router.HandleFunc("/api/plant", api.getPlant).Methods(http.MethodGet)
	router.HandleFunc("/api/job", api.getJob).Methods(http.MethodGet)
	router.HandleFunc("/api/optimize", api.postOptimize).Methods(http.MethodPost)
	router.HandleFunc("/api/analyze", api.postAnalyze).Methods(http.MethodPost)
	return router
}

type restAPI struct {
	engine *simulator.Engine
}

func (a *restAPI) getPlant(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PlantLoadedFromEngine(a.engine.Plant()))
}

func (a *restAPI) getJob(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, JobStateFromEngine(a.engine.State()))
}

func (a *restAPI) postOptimize(w http.ResponseWriter, req *http.Request) {
	var p OptimizeStartPayload
	if err := decodeBody(req, &p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := a.engine.RunOptimize(req.Context(), p.Request(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OptimizeResultFromEngine("", res))
}

func (a *restAPI) postAnalyze(w http.ResponseWriter, req *http.Request) {
	var p AnalyzeStartPayload
	if err := decodeBody(req, &p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := a.engine.RunAnalyze(req.Context(), p.Request(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResultFromEngine("", res))
}

// decodeBody treats an empty body, chunked or not, as an empty object.
func decodeBody(req *http.Request, v any) error {
	if req.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch ErrorCode(err) {
	case CodeInvalidInput:
		status = http.StatusBadRequest
	case CodeMissingData:
		status = http.StatusUnprocessableEntity
	case CodeBusy:
		status = http.StatusConflict
	default:
		log.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, JobErrorFromEngine("", err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("error encoding response: %v", err)
	}
}
