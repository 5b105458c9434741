package workers_test

import (
	"sync/atomic"
	"testing"

	"github.com/coursetutor/backend/internal/workers"
	"github.com/stretchr/testify/assert"
)

func TestWorker_Wait(t *testing.T) {
	w := workers.NewWorker()

	var count atomic.Int32
	for range 10 {
		w.Go(func() {
			count.Add(1)
		})
	}

	w.Wait()
	assert.Equal(t, int32(10), count.Load())
}

func TestWorker_RecoversPanic(t *testing.T) {
	w := workers.NewWorker()

	var ran atomic.Bool
	w.Go(func() {
		panic("boom")
	})
	w.Go(func() {
		ran.Store(true)
	})

	assert.NotPanics(t, w.Wait)
	assert.True(t, ran.Load())
}
