package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/Infinity2209/user/cmd/panelapi/internal/resource"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds create and update payloads.
const maxBodyBytes = 1 << 20

// ResourceHandlers serves CRUD for every registered resource against one store.
type ResourceHandlers struct {
	store    repository.DocumentStore
	registry *resource.Registry
	log      logrus.FieldLogger
}

// NewResourceHandlers creates handlers over store. The store is owned by the caller.
func NewResourceHandlers(store repository.DocumentStore, registry *resource.Registry, log logrus.FieldLogger) *ResourceHandlers {
	return &ResourceHandlers{store: store, registry: registry, log: log}
}

// MountResourceRoutes registers "/{resource}" and "/{resource}/{id}" for all methods.
func MountResourceRoutes(r chi.Router, h *ResourceHandlers) {
	r.HandleFunc("/{resource}", h.Serve)
	r.HandleFunc("/{resource}/", h.Serve)
	r.HandleFunc("/{resource}/{id}", h.Serve)
}

// Serve dispatches on the request method. Any panic is reported as a 500 envelope.
func (h *ResourceHandlers) Serve(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.registry.Lookup(chi.URLParam(r, "resource"))
	if !ok {
		notFound(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	log := h.log.WithFields(logrus.Fields{"resource": desc.Kind, "id": id, "method": r.Method})

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("resource handler panicked")
			writeError(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()

	switch r.Method {
	case http.MethodOptions:
		preflight(w, r)
	case http.MethodGet:
		if id != "" {
			h.get(w, r, desc, id, log)
			return
		}
		h.list(w, r, desc, log)
	case http.MethodPost:
		h.create(w, r, desc, log)
	case http.MethodPut:
		if id == "" {
			writeError(w, http.StatusBadRequest, desc.IDRequiredMessage())
			return
		}
		h.update(w, r, desc, id, log)
	case http.MethodDelete:
		if id == "" {
			writeError(w, http.StatusBadRequest, desc.IDRequiredMessage())
			return
		}
		h.delete(w, r, desc, id, log)
	default:
		methodNotAllowed(w, r)
	}
}

func (h *ResourceHandlers) list(w http.ResponseWriter, r *http.Request, desc *resource.Descriptor, log logrus.FieldLogger) {
	records, err := h.store.FindAll(r.Context(), desc.Kind)
	if err != nil {
		h.storeFailure(w, desc, err, log)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ResourceHandlers) get(w http.ResponseWriter, r *http.Request, desc *resource.Descriptor, id string, log logrus.FieldLogger) {
	record, err := h.store.FindByID(r.Context(), desc.Kind, id)
	if err != nil {
		h.storeFailure(w, desc, err, log)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ResourceHandlers) create(w http.ResponseWriter, r *http.Request, desc *resource.Descriptor, log logrus.FieldLogger) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fields, err := desc.ParseCreate(body)
	if err != nil {
		log.WithError(err).Debug("rejected create body")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.store.Insert(r.Context(), desc.Kind, fields)
	if err != nil {
		h.storeFailure(w, desc, err, log)
		return
	}
	log.WithField("id", created.ID()).Info("created")
	writeJSON(w, http.StatusCreated, created)
}

// update parses the body before looking the id up, so a bad body on an absent id is a 500.
func (h *ResourceHandlers) update(w http.ResponseWriter, r *http.Request, desc *resource.Descriptor, id string, log logrus.FieldLogger) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	patch, err := desc.ParsePatch(body)
	if err != nil {
		log.WithError(err).Debug("rejected update body")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), desc.Kind, id, patch)
	if err != nil {
		h.storeFailure(w, desc, err, log)
		return
	}
	log.Info("updated")
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandlers) delete(w http.ResponseWriter, r *http.Request, desc *resource.Descriptor, id string, log logrus.FieldLogger) {
	removed, err := h.store.Delete(r.Context(), desc.Kind, id)
	if err != nil {
		h.storeFailure(w, desc, err, log)
		return
	}
	log.Info("deleted")
	writeJSON(w, http.StatusOK, removed)
}

func (h *ResourceHandlers) storeFailure(w http.ResponseWriter, desc *resource.Descriptor, err error, log logrus.FieldLogger) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, desc.NotFoundMessage())
		return
	}
	log.WithError(err).Error("store operation failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
