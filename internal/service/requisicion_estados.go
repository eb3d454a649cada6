package service

import "obraspm/internal/model"

// transiciones is the requisition workflow. pagada is terminal; a rejected
// requisition can be sent back to pendiente.
var transiciones = map[model.EstadoRequisicion][]model.EstadoRequisicion{
	model.EstadoPendiente:    {model.EstadoEnCotizacion, model.EstadoPorAprobar, model.EstadoRechazada},
	model.EstadoEnCotizacion: {model.EstadoPorAprobar, model.EstadoPendiente, model.EstadoRechazada},
	model.EstadoPorAprobar:   {model.EstadoAprobada, model.EstadoRechazada, model.EstadoPendiente},
	model.EstadoAprobada:     {model.EstadoPagada, model.EstadoRechazada},
	model.EstadoPagada:       {},
	model.EstadoRechazada:    {model.EstadoPendiente},
}

// Estados lists every workflow state in display order.
var Estados = []model.EstadoRequisicion{
	model.EstadoPendiente,
	model.EstadoEnCotizacion,
	model.EstadoPorAprobar,
	model.EstadoAprobada,
	model.EstadoPagada,
	model.EstadoRechazada,
}

// EstadoValido reports whether e is a known workflow state.
func EstadoValido(e model.EstadoRequisicion) bool {
	_, ok := transiciones[e]
	return ok
}

// PuedeTransicionar reports whether a requisition in from may move to to.
func PuedeTransicionar(from, to model.EstadoRequisicion) bool {
	for _, e := range transiciones[from] {
		if e == to {
			return true
		}
	}
	return false
}

// EstadosSiguientes returns the states reachable from from. Never nil.
func EstadosSiguientes(from model.EstadoRequisicion) []model.EstadoRequisicion {
	out := make([]model.EstadoRequisicion, len(transiciones[from]))
	copy(out, transiciones[from])
	return out
}

// EsEditable reports whether header and items may still be changed.
func EsEditable(e model.EstadoRequisicion) bool {
	return e == model.EstadoPendiente || e == model.EstadoEnCotizacion
}
