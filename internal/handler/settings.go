package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/benthanh-pos/api/internal/receipt"
	"github.com/benthanh-pos/api/internal/storage"
)

// SettingsStore defines the database methods needed by settings handlers.
// Satisfied by *storage.SettingsStore; narrow interface for testability.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) ([]byte, error)
	PutSetting(ctx context.Context, key string, value []byte) error
}

// SettingsHandler reads and writes the receipt formatting and bank display
// configuration. Reads always return the stored overrides merged over the
// defaults, so clients never see a partial document.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/settings/print", h.GetPrint)
	r.Put("/settings/print", h.PutPrint)
	r.Get("/settings/bank", h.GetBank)
	r.Put("/settings/bank", h.PutBank)
}

// GetPrint returns the effective print settings.
func (h *SettingsHandler) GetPrint(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.GetSetting(r.Context(), storage.SettingsKeyPrint)
	if err != nil {
		log.Printf("ERROR: get print settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, receipt.MergeSettings(stored))
}

// PutPrint replaces the stored print settings with the full document from
// the request body.
func (h *SettingsHandler) PutPrint(w http.ResponseWriter, r *http.Request) {
	var s receipt.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	value, err := json.Marshal(s)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := h.store.PutSetting(r.Context(), storage.SettingsKeyPrint, value); err != nil {
		log.Printf("ERROR: put print settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetBank returns the stored bank display settings.
func (h *SettingsHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.GetSetting(r.Context(), storage.SettingsKeyBank)
	if err != nil {
		log.Printf("ERROR: get bank settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	var bank receipt.BankSettings
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &bank); err != nil {
			log.Printf("ERROR: decode bank settings: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, bank)
}

// PutBank replaces the stored bank display settings.
func (h *SettingsHandler) PutBank(w http.ResponseWriter, r *http.Request) {
	var bank receipt.BankSettings
	if err := json.NewDecoder(r.Body).Decode(&bank); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	value, err := json.Marshal(bank)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := h.store.PutSetting(r.Context(), storage.SettingsKeyBank, value); err != nil {
		log.Printf("ERROR: put bank settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// SettingsLoader adapts the settings store to the settlement service's
// read-side interface. Load failures fall back to the defaults.
type SettingsLoader struct {
	store SettingsStore
}

// NewSettingsLoader creates a new SettingsLoader.
func NewSettingsLoader(store SettingsStore) *SettingsLoader {
	return &SettingsLoader{store: store}
}

func (l *SettingsLoader) PrintSettings(ctx context.Context) receipt.Settings {
	stored, err := l.store.GetSetting(ctx, storage.SettingsKeyPrint)
	if err != nil {
		log.Printf("ERROR: load print settings: %v", err)
		return receipt.DefaultSettings()
	}
	return receipt.MergeSettings(stored)
}

func (l *SettingsLoader) BankSettings(ctx context.Context) receipt.BankSettings {
	var bank receipt.BankSettings
	stored, err := l.store.GetSetting(ctx, storage.SettingsKeyBank)
	if err != nil {
		log.Printf("ERROR: load bank settings: %v", err)
		return bank
	}
	if len(stored) > 0 {
		_ = json.Unmarshal(stored, &bank)
	}
	return bank
}
