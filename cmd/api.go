package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/compliance"
	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// newRouter assembles the HTTP API over the environment.
func newRouter(env *environment) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", handleHealth)
	r.Post("/resolve", handleResolve(env))
	r.Post("/check", handleCheck(env))
	r.Get("/zones", handleZones(env))
	r.Get("/zones/{code}", handleZone(env))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleResolve(env *environment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input model.ResolveInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if input.Empty() {
			writeError(w, http.StatusBadRequest, "provide address, registration or coordinates")
			return
		}

		res, err := env.Resolver.Resolve(r.Context(), input)
		if err != nil {
			zap.L().Error("resolve failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "resolution failed")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleCheck(env *environment) http.HandlerFunc {
	type request struct {
		Zone    string               `json:"zone"`
		Metrics model.ProjectMetrics `json:"metrics"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Zone == "" {
			writeError(w, http.StatusBadRequest, "zone is required")
			return
		}
		writeJSON(w, http.StatusOK, env.Engine.Check(req.Zone, req.Metrics))
	}
}

type zoneEntry struct {
	zonemap.Info
	Params compliance.ZoneParams `json:"params"`
}

func handleZones(env *environment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := env.Engine.Table()
		entries := make([]zoneEntry, 0)
		for _, info := range zonemap.All() {
			params, _ := table.Get(info.Code)
			entries = append(entries, zoneEntry{info, params})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleZone(env *environment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := zonemap.Normalize(chi.URLParam(r, "code"))
		info, ok := zonemap.Lookup(code)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown zone")
			return
		}
		params, _ := env.Engine.Table().Get(code)
		writeJSON(w, http.StatusOK, zoneEntry{info, params})
	}
}
