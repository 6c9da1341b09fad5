// Package api implements the local control API consumed by the
// composer UI and by operator tooling.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"draftsync/pkg/engine"
	"draftsync/pkg/logger"
	"draftsync/pkg/models"
	"draftsync/pkg/netmon"
	"draftsync/pkg/store"
	"draftsync/pkg/utils"
	"draftsync/pkg/validation"
)

// Deps are the components the handlers operate on.
type Deps struct {
	Store   *store.Store
	Engine  *engine.Engine
	Monitor *netmon.Monitor
}

type saveDraftRequest struct {
	models.ContentPayload
	MediaLocalPaths []string `json:"mediaLocalPaths,omitempty"`
}

type resolveRequest struct {
	Strategy models.ResolutionStrategy `json:"strategy"`
	Merged   *models.ContentPayload    `json:"merged,omitempty"`
}

// Handler builds the /v1 router. Fixed paths are registered before the
// {localId} routes so "export" and friends are never captured as ids.
func Handler(d Deps) http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/drafts/export", d.exportDrafts).Methods(http.MethodGet)
	v1.HandleFunc("/drafts/import", d.importDrafts).Methods(http.MethodPost)
	v1.HandleFunc("/drafts/clear-synced", d.clearSynced).Methods(http.MethodPost)
	v1.HandleFunc("/drafts", d.saveDraft).Methods(http.MethodPost)
	v1.HandleFunc("/drafts", d.listDrafts).Methods(http.MethodGet)
	v1.HandleFunc("/drafts/{localId}", d.getDraft).Methods(http.MethodGet)
	v1.HandleFunc("/drafts/{localId}", d.updateDraft).Methods(http.MethodPatch, http.MethodPut)
	v1.HandleFunc("/drafts/{localId}", d.deleteDraft).Methods(http.MethodDelete)

	v1.HandleFunc("/sync", d.runSync).Methods(http.MethodPost)
	v1.HandleFunc("/sync/stats", d.syncStats).Methods(http.MethodGet)
	v1.HandleFunc("/sync/{localId}", d.syncDraft).Methods(http.MethodPost)

	v1.HandleFunc("/conflicts", d.listConflicts).Methods(http.MethodGet)
	v1.HandleFunc("/conflicts/auto-resolve", d.autoResolve).Methods(http.MethodPost)
	v1.HandleFunc("/conflicts/{localId}/resolve", d.resolveConflict).Methods(http.MethodPost)

	v1.HandleFunc("/network", d.networkStatus).Methods(http.MethodGet)
	v1.HandleFunc("/network", d.setNetwork).Methods(http.MethodPost)

	return r
}

func (d Deps) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateDraft(req.ContentPayload); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	localID, err := d.Store.SaveDraftOffline(req.ContentPayload, req.MediaLocalPaths)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	draft := d.Store.GetDraftByID(localID)
	_ = utils.JSONWrite(w, http.StatusCreated, draft)
}

func (d Deps) listDrafts(w http.ResponseWriter, r *http.Request) {
	drafts := d.Store.GetAllDrafts()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := []models.Draft{}
		for _, dr := range drafts {
			if string(dr.SyncStatus) == status {
				filtered = append(filtered, dr)
			}
		}
		drafts = filtered
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Drafts []models.Draft `json:"drafts"`
	}{Drafts: drafts})
}

func (d Deps) getDraft(w http.ResponseWriter, r *http.Request) {
	localID := mux.Vars(r)["localId"]
	draft := d.Store.GetDraftByID(localID)
	if draft == nil {
		utils.JSONError(w, http.StatusNotFound, "draft not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, draft)
}

func (d Deps) updateDraft(w http.ResponseWriter, r *http.Request) {
	localID := mux.Vars(r)["localId"]
	var upd models.DraftUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ok, err := d.Store.UpdateDraftOffline(localID, upd)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "draft not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d.Store.GetDraftByID(localID))
}

func (d Deps) deleteDraft(w http.ResponseWriter, r *http.Request) {
	localID := mux.Vars(r)["localId"]
	ok, err := d.Store.DeleteDraft(localID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "draft not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (d Deps) exportDrafts(w http.ResponseWriter, r *http.Request) {
	b, err := d.Store.ExportDrafts()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="drafts.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (d Deps) importDrafts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "cannot read body")
		return
	}
	if !d.Store.ImportDrafts(body) {
		utils.JSONError(w, http.StatusBadRequest, "invalid draft collection")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"imported": true})
}

func (d Deps) clearSynced(w http.ResponseWriter, r *http.Request) {
	removed := d.Store.ClearSyncedDrafts()
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"removed": removed})
}

func (d Deps) runSync(w http.ResponseWriter, r *http.Request) {
	var res models.SyncResult
	if r.URL.Query().Get("force") == "true" {
		res = d.Engine.ForceSync(r.Context())
	} else {
		res = d.Engine.SyncPendingDrafts(r.Context())
	}
	logger.Info("sync_requested", "success", res.Success, "synced", res.SyncedCount)
	_ = utils.JSONWrite(w, syncStatusCode(res), res)
}

func (d Deps) syncDraft(w http.ResponseWriter, r *http.Request) {
	localID := mux.Vars(r)["localId"]
	res := d.Engine.SyncDraft(r.Context(), localID)
	_ = utils.JSONWrite(w, syncStatusCode(res), res)
}

// syncStatusCode maps a run result to an HTTP status: rejection kinds
// get 409/503, partial failure still returns 200 because the run itself
// completed and the body carries per-draft outcomes.
func syncStatusCode(res models.SyncResult) int {
	if res.Success || len(res.Errors) == 0 {
		return http.StatusOK
	}
	switch res.Errors[0].Kind {
	case models.SyncErrGuardBusy:
		return http.StatusConflict
	case models.SyncErrOffline:
		return http.StatusServiceUnavailable
	case models.SyncErrDraftNotFound:
		return http.StatusNotFound
	}
	return http.StatusOK
}

func (d Deps) syncStats(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, d.Store.GetSyncStats())
}

func (d Deps) listConflicts(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conflicts   []models.Draft              `json:"conflicts"`
		Suggestions []models.ConflictSuggestion `json:"suggestions"`
	}{
		Conflicts:   d.Store.GetConflictDrafts(),
		Suggestions: d.Engine.GetConflictSuggestions(),
	})
}

func (d Deps) autoResolve(w http.ResponseWriter, r *http.Request) {
	resolved := d.Engine.AutoResolveConflicts(r.Context())
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"resolved": resolved})
}

func (d Deps) resolveConflict(w http.ResponseWriter, r *http.Request) {
	localID := mux.Vars(r)["localId"]
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if serr := d.Engine.ResolveConflict(r.Context(), localID, req.Strategy, req.Merged); serr != nil {
		switch serr.Kind {
		case models.SyncErrDraftNotFound:
			utils.JSONError(w, http.StatusNotFound, serr.Detail)
		case models.SyncErrInvalidResolution:
			utils.JSONError(w, http.StatusBadRequest, serr.Detail)
		default:
			utils.JSONError(w, http.StatusBadGateway, serr.Detail)
		}
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d.Store.GetDraftByID(localID))
}

func (d Deps) networkStatus(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"online": d.Monitor.IsOnlineStatus()})
}

// setNetwork ingests a connectivity event pushed by the host platform.
func (d Deps) setNetwork(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	d.Monitor.SetOnline(req.Online)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"online": d.Monitor.IsOnlineStatus()})
}
