// Package handler maps the ARK service's HTTP endpoints onto the minting,
// update, and resolution services.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/noid"
	"github.com/arkmint/arkmint/internal/server/middleware"
	"github.com/arkmint/arkmint/internal/service"
	"github.com/arkmint/arkmint/internal/store"
)

// ArkHandler serves minting, updating, and resolution of arks.
type ArkHandler struct {
	store    *store.Store
	minter   *service.Minter
	resolver *service.Resolver
	logger   *slog.Logger
}

// NewArkHandler creates an ArkHandler.
func NewArkHandler(st *store.Store, minter *service.Minter, resolver *service.Resolver, logger *slog.Logger) *ArkHandler {
	return &ArkHandler{
		store:    st,
		minter:   minter,
		resolver: resolver,
		logger:   logger,
	}
}

// Mint creates a new ark under the authenticated naan.
// POST /mint
func (h *ArkHandler) Mint(w http.ResponseWriter, r *http.Request) {
	naan := middleware.GetNaan(r.Context())
	if naan == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req model.MintRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Naan <= 0 || req.Shoulder == "" {
		writeError(w, http.StatusBadRequest, "naan and shoulder are required")
		return
	}

	// A key only mints under its own naan.
	if req.Naan != naan.Naan {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	ark, collisions, err := h.minter.Mint(r.Context(), naan, req.Shoulder, req.URL, req.Metadata, req.Commitment)
	if err != nil {
		if errors.Is(err, service.ErrMintExhausted) {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Gave up creating ark after %d collision(s)", collisions))
			return
		}
		h.logger.Error("mint failed", "naan", naan.Naan, "shoulder", req.Shoulder, "error", err)
		writeError(w, http.StatusInternalServerError, "Minting failed")
		return
	}

	writeJSON(w, http.StatusOK, model.MintResponse{Ark: ark.String()})
}

// Update sets the mutable fields of an existing ark owned by the
// authenticated naan.
// PUT /update
func (h *ArkHandler) Update(w http.ResponseWriter, r *http.Request) {
	naan := middleware.GetNaan(r.Context())
	if naan == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req model.UpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Ark == "" {
		writeError(w, http.StatusBadRequest, "ark is required")
		return
	}

	_, arkNaan, assignedName, err := noid.ParseArk(req.Ark)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ark: "+req.Ark)
		return
	}
	if arkNaan != naan.Naan {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	canonical := fmt.Sprintf("%d/%s", arkNaan, assignedName)
	if err := h.store.UpdateArk(r.Context(), canonical, req.URL, req.Metadata, req.Commitment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Ark not found")
			return
		}
		h.logger.Error("update failed", "ark", canonical, "error", err)
		writeError(w, http.StatusInternalServerError, "Update failed")
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// Resolve redirects an ark to its target through the three-tier fallback
// chain. Reserved arks (no target yet) get a 404; only malformed input is a
// client error.
// GET /ark:/...
func (h *ArkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	arkString := strings.TrimPrefix(r.URL.EscapedPath(), "/")

	target, err := h.resolver.Resolve(r.Context(), arkString)
	if err != nil {
		switch {
		case errors.Is(err, noid.ErrInvalidArk):
			h.logger.Warn("failed to parse ark", "ark", arkString, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid ark: "+arkString)
		case errors.Is(err, service.ErrReserved):
			// TODO: serve an "ark in progress" page instead of a bare 404.
			writeError(w, http.StatusNotFound, "Ark is reserved but has no target yet")
		default:
			h.logger.Error("resolve failed", "ark", arkString, "error", err)
			writeError(w, http.StatusInternalServerError, "Resolution failed")
		}
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
