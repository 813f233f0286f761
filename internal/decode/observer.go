package decode

import "time"

// StepEvent describes one completed decode step.
type StepEvent struct {
	Step           int
	Token          int
	ContextLen     int
	PredictLatency time.Duration
}

// Observer is notified after each token is appended. OnStep runs on the
// decode goroutine, so it must return quickly.
type Observer interface {
	OnStep(StepEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StepEvent)

func (f ObserverFunc) OnStep(ev StepEvent) { f(ev) }

// Observers fans a step out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multi, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multi []Observer

func (m multi) OnStep(ev StepEvent) {
	for _, o := range m {
		o.OnStep(ev)
	}
}
