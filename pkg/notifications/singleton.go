package notifications

import "sync"

var shared struct {
	mu   sync.Mutex
	inst *Orchestrator
}

// Init returns the process-wide orchestrator, building it from the given
// collaborators on first use. Later calls return the existing instance and
// ignore their arguments. Storage, email and sms are required to build it.
func Init(storage Storage, directory UserDirectory, email EmailTransport, sms SMSTransport, opts ...Option) (*Orchestrator, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.inst != nil {
		return shared.inst, nil
	}
	if storage == nil || email == nil || sms == nil {
		return nil, ErrConfiguration
	}
	shared.inst = New(storage, directory, email, sms, opts...)
	return shared.inst, nil
}

// Shared returns the process-wide orchestrator or ErrConfiguration if Init
// has not succeeded yet.
func Shared() (*Orchestrator, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.inst == nil {
		return nil, ErrConfiguration
	}
	return shared.inst, nil
}

// MustShared is like Shared but panics when the orchestrator is not initialised.
func MustShared() *Orchestrator {
	o, err := Shared()
	if err != nil {
		panic(err)
	}
	return o
}

// resetShared drops the shared instance. Tests only.
func resetShared() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	shared.inst = nil
}
