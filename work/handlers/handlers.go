package handlers

import (
	"encoding/json"
	"net/http"

	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/merge"
	"sportscast-proxy/work/probe"
	"sportscast-proxy/work/types"
	"sportscast-proxy/work/utils"

	"github.com/gorilla/mux"
)

// Handlers glues the catalog engine and the prober to the HTTP surface.
// Catalogs are built fresh per request; there is deliberately no cross-request
// cache, so edits to manual lists show up immediately.
type Handlers struct {
	cfg    *config.Config
	engine *merge.Engine
	prober *probe.Prober
}

// New creates the handler set.
func New(cfg *config.Config, engine *merge.Engine, prober *probe.Prober) *Handlers {
	return &Handlers{
		cfg:    cfg,
		engine: engine,
		prober: prober,
	}
}

// Channels handles GET /channels: the allow-list-restricted catalog.
func (h *Handlers) Channels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.BuildRestricted(r.Context()))
}

// AllChannels handles GET /all-channels: the unified catalog with provenance
// tags, hidden-channel suppression and optional manual-stream probing.
func (h *Handlers) AllChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.BuildUnified(r.Context()))
}

// CatalogueChannels handles GET /catalogue-channels: the catalogue-wide
// playlist alone, with exclude patterns applied.
func (h *Handlers) CatalogueChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.BuildCatalogue(r.Context()))
}

// channelView is the wire shape of a single-channel lookup.
type channelView struct {
	Channel string   `json:"channel"`
	Logo    *string  `json:"logo"`
	Streams []string `json:"streams"`
	Source  string   `json:"source"`
}

// Channel handles GET /channel/{name}: a case-insensitive lookup in the
// unified catalog. Unknown names and entries left without streams both 404.
func (h *Handlers) Channel(w http.ResponseWriter, r *http.Request) {
	name := utils.NormalizeName(mux.Vars(r)["name"])
	if name == "" {
		http.Error(w, "missing channel name", http.StatusBadRequest)
		return
	}

	catalog := h.engine.BuildUnified(r.Context())

	entry, ok := catalog.Get(name)
	if !ok || len(entry.Streams) == 0 {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}

	view := channelView{
		Channel: entry.CanonicalID,
		Streams: entry.Streams,
		Source:  string(entry.Provenance),
	}
	if entry.Logo != "" {
		logo := entry.Logo
		view.Logo = &logo
	}

	writeJSON(w, view)
}

// checkStreamRequest is the POST /check-stream body.
type checkStreamRequest struct {
	URL string `json:"url"`
}

// CheckStream handles POST /check-stream: probes a single stream URL and
// reports whether it is currently reachable.
func (h *Handlers) CheckStream(w http.ResponseWriter, r *http.Request) {
	var req checkStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" || !utils.IsHTTPURL(req.URL) {
		http.Error(w, "missing or invalid url", http.StatusBadRequest)
		return
	}

	online := h.prober.Probe(r.Context(), req.URL)
	writeJSON(w, map[string]bool{"online": online})
}

// writeJSON encodes v as the response body. Encoding failures after the
// header is out can only be logged.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

var _ json.Marshaler = (*types.Catalog)(nil)
