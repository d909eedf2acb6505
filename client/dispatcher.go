package client

import "github.com/sketchwire/sketchwire/internal/domain"

// Dispatcher routes synchronizer events to registered callbacks.
// Callbacks run on the read loop goroutine and must not block.
type Dispatcher struct {
	onShapes func([]domain.Shape)
	onState  func(StateEvent)
	onError  func(error)
}

func (d *Dispatcher) SetOnShapesChanged(fn func([]domain.Shape)) { d.onShapes = fn }
func (d *Dispatcher) SetOnStateChange(fn func(StateEvent))       { d.onState = fn }
func (d *Dispatcher) SetOnError(fn func(error))                  { d.onError = fn }

func (d *Dispatcher) fireShapes(shapes []domain.Shape) {
	if d.onShapes != nil {
		d.onShapes(shapes)
	}
}

func (d *Dispatcher) fireState(ev StateEvent) {
	if d.onState != nil {
		d.onState(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
