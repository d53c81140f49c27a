package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	dequeuesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/dequeue"
	getdeletesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/getdelete"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

// Route names, also used as metric labels.
const (
	RouteDequeue = "dequeue"
	RouteGet     = "get"
	RouteDelete  = "delete"
)

// WireQController serves both retrieval protocols.
type WireQController struct {
	rt     *runtime.Runtime
	dq     *dequeuesvc.Service
	gd     *getdeletesvc.Service
	logger logpkg.Logger
}

// NewWireQController creates the wireQ controller.
func NewWireQController(rt *runtime.Runtime, dq *dequeuesvc.Service, gd *getdeletesvc.Service, logger logpkg.Logger) *WireQController {
	return &WireQController{rt: rt, dq: dq, gd: gd, logger: logger}
}

// RegisterRoutes registers the wireQ routes. Every route is rate limited.
//
// The hyphenated and singular spellings are the paths used by the wireQ
// example scripts and are served as aliases.
func (c *WireQController) RegisterRoutes(r *mux.Router) {
	dq := throttle(c.rt, c.handleDequeue)
	get := throttle(c.rt, c.handleGet)
	del := throttle(c.rt, c.handleDelete)

	// Aliases share the route name so metrics count them with the main
	// route. They are registered first: the last route registered under a
	// name is the one mux.Router.Get returns.
	r.HandleFunc("/dequeue-entries.json", dq).Methods(http.MethodPost).Name(RouteDequeue)
	r.HandleFunc("/entries.json", get).Methods(http.MethodGet).Name(RouteGet)
	r.HandleFunc("/entry/{token}", del).Methods(http.MethodDelete).Name(RouteDelete)

	r.HandleFunc("/dequeue_entries.json", dq).Methods(http.MethodPost).Name(RouteDequeue)
	r.HandleFunc("/entries", get).Methods(http.MethodGet).Name(RouteGet)
	r.HandleFunc("/entries/{token}", del).Methods(http.MethodDelete).Name(RouteDelete)
}

// handleDequeue removes and returns the next batch.
func (c *WireQController) handleDequeue(w http.ResponseWriter, r *http.Request) {
	res, err := c.dq.Dequeue(r.Context())
	if err != nil {
		c.logger.WithContext(r.Context()).Error("dequeue failed", logpkg.Err(err))
		InternalError(w)
		return
	}
	entries := res.Entries
	if entries == nil {
		entries = []entrystore.Entry{}
	}
	setRetryAfter(w, res.RetryAfter)
	writeJSON(w, http.StatusOK, dequeueResp{Entries: entries})
}

// handleGet holds the next batch and returns it with its receipt.
func (c *WireQController) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := c.gd.Get(r.Context())
	if err != nil {
		c.logger.WithContext(r.Context()).Error("get failed", logpkg.Err(err))
		InternalError(w)
		return
	}
	out := getResp{Entries: make([]getEntry, 0, len(res.Entries)), Receipt: res.Receipt}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, getEntry{Sequence: e.Sequence, Payload: e.Payload, Receipt: res.Receipt})
	}
	setRetryAfter(w, res.RetryAfter)
	writeJSON(w, http.StatusOK, out)
}

// handleDelete redeems the receipt in the path.
func (c *WireQController) handleDelete(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	deleted, err := c.gd.Delete(r.Context(), token)
	if err != nil {
		status, msg := deleteStatus(err)
		if status == http.StatusInternalServerError && msg == msgInternal {
			c.logger.WithContext(r.Context()).Error("delete failed", logpkg.Str("receipt", token), logpkg.Err(err))
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{Deleted: deleted})
}
