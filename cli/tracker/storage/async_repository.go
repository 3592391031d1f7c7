package storage

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
)

// AsyncRepository decouples the tracking pipeline from slow storages by
// writing records through a worker pool.
type AsyncRepository struct {
	repo   *Repository
	ch     chan Record
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewAsyncRepository(repo *Repository, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ar := &AsyncRepository{
		repo:   repo,
		ch:     make(chan Record, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for {
		select {
		case rec, ok := <-a.ch:
			if !ok {
				return
			}
			if err := a.repo.Save(rec); err != nil {
				log.WithField("err", err).Error("Failed to save record")
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *AsyncRepository) Save(rec Record) error {
	select {
	case a.ch <- rec:
		return nil
	case <-a.ctx.Done():
		return fmt.Errorf("async repository is closed")
	}
}

func (a *AsyncRepository) Close() {
	a.cancel()
	close(a.ch)
	a.wg.Wait()
}
