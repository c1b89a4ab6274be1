package enhancer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/StefanBrandt/FotoFix/app/models"
)

// MaxWorkers bounds how many enhancement pipelines run at once. Transform
// calls hold full decoded images in memory, so the limit doubles as a memory
// throttle.
const MaxWorkers = 3

// Pool runs enhancement jobs on a fixed set of workers.
type Pool struct {
	orchestrator *Orchestrator

	jobs           chan *models.EnhancementJob
	wg             sync.WaitGroup
	started        bool
	mutex          sync.Mutex
	activeJobs     int32
	memoryThrottle chan struct{}
}

// Global pool instance
var (
	pool     *Pool
	poolOnce sync.Once
)

// SetupPool initializes the singleton worker pool around an orchestrator.
func SetupPool(orchestrator *Orchestrator) *Pool {
	poolOnce.Do(func() {
		pool = &Pool{
			orchestrator:   orchestrator,
			jobs:           make(chan *models.EnhancementJob, 100),
			memoryThrottle: make(chan struct{}, MaxWorkers),
		}
		pool.Start()
	})
	return pool
}

// GetPool returns the singleton pool. SetupPool must have run first.
func GetPool() *Pool {
	return pool
}

// Start launches the workers.
func (p *Pool) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		return
	}

	p.started = true
	for i := 0; i < MaxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Info("[Enhancer] Started worker pool with ", MaxWorkers, " workers")
}

// Stop drains the queue and shuts the workers down.
func (p *Pool) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started {
		return
	}

	close(p.jobs)
	p.wg.Wait()
	p.started = false
	log.Info("[Enhancer] Worker pool stopped")
}

// Enqueue hands a created job to the pool.
func (p *Pool) Enqueue(job *models.EnhancementJob) {
	if !p.started {
		p.Start()
	}

	p.jobs <- job
	log.Info(fmt.Sprintf("[Enhancer] Enqueued job %s", job.DisplayID))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log.Info(fmt.Sprintf("[Enhancer] Worker %d started", id))

	for job := range p.jobs {
		p.memoryThrottle <- struct{}{}
		atomic.AddInt32(&p.activeJobs, 1)

		log.Info(fmt.Sprintf("[Enhancer] Worker %d processing job %s (Active: %d)",
			id, job.DisplayID, atomic.LoadInt32(&p.activeJobs)))

		err := p.orchestrator.Enhance(context.Background(), job)

		<-p.memoryThrottle
		atomic.AddInt32(&p.activeJobs, -1)

		if err != nil {
			log.Error(fmt.Sprintf("[Enhancer] Worker %d failed job %s: %v", id, job.DisplayID, err))
		} else {
			log.Info(fmt.Sprintf("[Enhancer] Worker %d completed job %s", id, job.DisplayID))
		}

		// Give the GC a moment between image-heavy jobs.
		time.Sleep(100 * time.Millisecond)
	}

	log.Info(fmt.Sprintf("[Enhancer] Worker %d stopped", id))
}
