package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vkazarin/creditgate/app/models"
	"github.com/vkazarin/creditgate/internal/pkg/database"
	"github.com/vkazarin/creditgate/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue         *Queue
	archiveTicker *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	// Sweep processed webhook events into cold storage periodically
	archiveInterval := 15 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("WEBHOOK_ARCHIVE_SWEEP_MINUTES", "")); err == nil && v > 0 {
		archiveInterval = time.Duration(v) * time.Minute
	}
	m.archiveTicker = time.NewTicker(archiveInterval)
	m.wg.Add(1)
	go m.archiveSweepWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.archiveTicker != nil {
		m.archiveTicker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// archiveSweepWorker periodically enqueues archive jobs for processed
// webhook events that have not been uploaded yet.
func (m *Manager) archiveSweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Archive sweep worker stopping")
			return
		case <-m.archiveTicker.C:
			if err := m.sweepUnarchivedEvents(); err != nil {
				log.Errorf("[JobQueue Manager] Archive sweep error: %v", err)
			}
		}
	}
}

// sweepUnarchivedEvents picks a batch of processed, unarchived events older
// than a day and queues their upload.
func (m *Manager) sweepUnarchivedEvents() error {
	cutoff := time.Now().Add(-24 * time.Hour)

	var events []models.PaymentWebhookEvent
	err := database.GetDB().
		Where("processed_at IS NOT NULL AND archived_at IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(100).
		Find(&events).Error
	if err != nil {
		return err
	}

	for _, event := range events {
		if _, err := m.queue.EnqueueWebhookArchiveJob(event.ID); err != nil {
			log.Errorf("[JobQueue Manager] Failed to enqueue archive for event %d: %v", event.ID, err)
		}
	}
	if len(events) > 0 {
		log.Infof("[JobQueue Manager] Queued %d webhook events for archival", len(events))
	}
	return nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
