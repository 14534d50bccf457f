package storyvideo

import (
	"fmt"

	"github.com/gofrs/flock"

	"storyvideo/internal/services"
)

// outputLock guards an output path against concurrent runs, including runs
// in other processes.
type outputLock struct {
	lock *flock.Flock
}

func acquireOutputLock(outputPath string) (*outputLock, error) {
	lock := flock.New(outputPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output", fmt.Sprintf("lock %s", outputPath), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock output",
			fmt.Sprintf("another run is writing %s", outputPath), nil)
	}
	return &outputLock{lock: lock}, nil
}

// release unlocks but leaves the lock file in place. Removing it would let a
// run that opened the old file and a run that creates a new one both lock.
func (l *outputLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
