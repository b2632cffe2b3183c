package audit

import (
	"sync"
	"time"

	"sqlconsoleapi/config"
	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"

	"github.com/google/uuid"
)

// Recorder persists query execution records asynchronously. Delivery is
// best-effort, not exactly-once: a full queue or a failed write is logged and
// the record is dropped. Callers never block on or fail because of an audit
// write.
type Recorder struct {
	executionRepo repository.QueryExecutionRepository
	queue         chan *models.QueryExecution
	done          chan struct{}
	stopOnce      sync.Once
}

var (
	recorderInstance *Recorder
	recorderOnce     sync.Once
)

// GetRecorder returns the singleton audit recorder, starting its drain
// goroutine on first use.
func GetRecorder() *Recorder {
	recorderOnce.Do(func() {
		size := config.Cfg.AuditQueueSize
		if size <= 0 {
			size = 256
		}
		recorderInstance = NewRecorder(repository.NewQueryExecutionRepository(), size)
	})
	return recorderInstance
}

// NewRecorder creates a recorder with an explicit repository and queue size
// and starts its background drain. Used directly in tests.
func NewRecorder(executionRepo repository.QueryExecutionRepository, queueSize int) *Recorder {
	r := &Recorder{
		executionRepo: executionRepo,
		queue:         make(chan *models.QueryExecution, queueSize),
		done:          make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues an execution record without blocking. The record's
// ExecutionID and CreatedAt are filled in if absent.
func (r *Recorder) Record(record *models.QueryExecution) {
	if record.ExecutionID == "" {
		record.ExecutionID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	select {
	case r.queue <- record:
	default:
		logger.Warnf("Audit queue full, dropping execution record for connection %d (status %s)",
			record.ConnectionID, record.Status)
	}
}

// Stop closes the queue and waits for the drain goroutine to flush the
// remaining records. Called during graceful shutdown.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) drain() {
	defer close(r.done)
	for record := range r.queue {
		if err := r.executionRepo.Create(nil, record); err != nil {
			// Audit write failure is isolated: logged, never retried,
			// never surfaced to the request that produced it.
			logger.Errorf("Failed to write execution record %s: %v", record.ExecutionID, err)
		}
	}
}
