package controllers

import (
	"github.com/gorilla/mux"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	dequeuesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/dequeue"
	getdeletesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/getdelete"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	wireq   *WireQController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, dq *dequeuesvc.Service, gd *getdeletesvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		wireq:   NewWireQController(rt, dq, gd, logger),
	}
}

// RegisterAllRoutes registers all controller routes and the JSON 404/405
// handlers on r.
func (c *ControllerRegistry) RegisterAllRoutes(r *mux.Router) {
	c.general.RegisterRoutes(r)
	c.wireq.RegisterRoutes(r)
	r.NotFoundHandler = NotFound()
	r.MethodNotAllowedHandler = MethodNotAllowed()
}
