package message

// FuncSink adapts plain functions to the Sink interface. Nil functions
// are no-ops; a nil InteractiveOpenFunc reports false.
type FuncSink struct {
	ManualLoginFunc     func(AuthPayload)
	AutomaticLoginFunc  func(AuthPayload)
	InteractiveOpenFunc func() bool
}

func (s FuncSink) ManualLogin(p AuthPayload) {
	if s.ManualLoginFunc != nil {
		s.ManualLoginFunc(p)
	}
}

func (s FuncSink) AutomaticLogin(p AuthPayload) {
	if s.AutomaticLoginFunc != nil {
		s.AutomaticLoginFunc(p)
	}
}

func (s FuncSink) InteractiveOpen() bool {
	if s.InteractiveOpenFunc != nil {
		return s.InteractiveOpenFunc()
	}
	return false
}
