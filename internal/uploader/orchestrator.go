package uploader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/extract"
	"github.com/firlift/firlift/internal/history"
	"github.com/firlift/firlift/internal/transport"
)

// Uploader is the transport dependency the orchestrator drives.
type Uploader interface {
	Upload(ctx context.Context, file extract.FileReference, contents io.Reader) ([]byte, int, error)
}

// Config tunes the orchestrator's cosmetic and timeout behavior.
type Config struct {
	UploadTimeout time.Duration // per-transaction deadline for the backend call
	ResetDelay    time.Duration // pause before a terminal session returns to idle
}

// Orchestrator is the upload state machine: Idle -> InFlight -> Succeeded or
// Failed -> Idle. It drives the transport and the progress estimator
// concurrently, feeds the response through the normalizer, and writes
// successful results into history before exposing them as the current result.
type Orchestrator struct {
	transport Uploader
	validator *extract.PayloadValidator
	history   *history.Store
	estimator *Estimator
	logger    *slog.Logger
	cfg       Config

	mu      sync.Mutex
	session Session
	current *extract.UploadResult
	gen     uint64 // transaction generation, bumps on each accepted submit
}

func NewOrchestrator(tp Uploader, validator *extract.PayloadValidator, hist *history.Store, est *Estimator, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if est == nil {
		est = NewEstimator(0, 0)
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 90 * time.Second
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = 1500 * time.Millisecond
	}
	return &Orchestrator{
		transport: tp,
		validator: validator,
		history:   hist,
		estimator: est,
		logger:    logger,
		cfg:       cfg,
		session:   NewSession(),
	}
}

// Submit starts a new upload transaction for file. At most one transaction is
// in flight at a time; a submit during InFlight is dropped, not queued.
func (o *Orchestrator) Submit(file extract.FileReference) error {
	o.mu.Lock()
	if o.session.Status == constants.UploadStatusInFlight {
		o.mu.Unlock()
		o.logger.Warn("uploader.submit.rejected", "reason", "upload in flight", "filename", file.Name)
		return common.ErrUploadInFlight
	}
	o.session = Session{Status: constants.UploadStatusInFlight, Progress: 0}
	o.gen++
	o.mu.Unlock()

	o.logger.Info("uploader.submit", "filename", file.Name, "mime_type", file.MIMEType)
	go o.run(file)
	return nil
}

func (o *Orchestrator) run(file extract.FileReference) {
	if file.Temporary {
		defer func() {
			if err := os.Remove(file.Locator); err != nil && !os.IsNotExist(err) {
				o.logger.Warn("uploader.spool.cleanup_failed", "locator", file.Locator, "error", err)
			}
		}()
	}

	stop := o.estimator.Start(func(p int) {
		o.mu.Lock()
		if o.session.Status == constants.UploadStatusInFlight && p > o.session.Progress {
			o.session.Progress = p
		}
		o.mu.Unlock()
	})
	defer stop()

	contents, err := os.Open(file.Locator)
	if err != nil {
		if os.IsPermission(err) {
			o.fail(common.ErrPermissionDenied.Error())
		} else {
			o.fail(err.Error())
		}
		return
	}
	defer func() {
		_ = contents.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.UploadTimeout)
	defer cancel()

	raw, status, err := o.transport.Upload(ctx, file, contents)
	stop()

	if err != nil {
		if status == 0 {
			// Network-level failure, no response: surface the transport message.
			o.fail(err.Error())
		} else {
			o.fail(transport.ErrorMessage(raw, status))
		}
		return
	}

	o.mu.Lock()
	o.session.Progress = 100
	o.mu.Unlock()

	if o.validator != nil {
		if verr := o.validator.Validate(raw); verr != nil {
			var appErr *common.AppError
			if errors.As(verr, &appErr) {
				o.fail(appErr.Message)
			} else {
				o.fail(verr.Error())
			}
			return
		}
	}

	result, err := extract.Normalize(raw)
	if err != nil {
		o.fail(transport.ErrorMessage(raw, status))
		return
	}
	result.ID = uuid.New().String()
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)

	// History first, then the current pointer: an observer reading the head of
	// history after a success always sees the same object as Current.
	o.history.Push(result)

	o.mu.Lock()
	o.current = &result
	o.session.Status = constants.UploadStatusSucceeded
	o.mu.Unlock()

	o.logger.Info("uploader.succeeded", "result_id", result.ID, "filename", file.Name)
	o.scheduleReset()
}

func (o *Orchestrator) fail(message string) {
	o.mu.Lock()
	o.session.Status = constants.UploadStatusFailed
	o.session.Error = message
	o.mu.Unlock()

	o.logger.Error("uploader.failed", "error", message)
	o.scheduleReset()
}

// scheduleReset returns the session to idle after a short pause so observers
// can read the terminal state. The generation check pins the timer to its own
// transaction: a stale timer never shortens a later transaction's display.
func (o *Orchestrator) scheduleReset() {
	o.mu.Lock()
	gen := o.gen
	o.mu.Unlock()

	time.AfterFunc(o.cfg.ResetDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.gen == gen && o.session.Status.Terminal() {
			o.session.Status = constants.UploadStatusIdle
			o.session.Progress = 0
		}
	})
}

// Session returns a snapshot of the transaction state.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Current returns the current result, or nil when none has been produced.
func (o *Orchestrator) Current() *extract.UploadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// SelectFromHistory repoints the current result at a stored entry. The stored
// sequence and its order are untouched.
func (o *Orchestrator) SelectFromHistory(id string) (*extract.UploadResult, error) {
	entry := o.history.Select(id)
	if entry == nil {
		return nil, common.ErrNotFound
	}
	o.mu.Lock()
	o.current = entry
	o.mu.Unlock()
	return entry, nil
}

// History exposes the underlying store to presentation layers.
func (o *Orchestrator) History() *history.Store {
	return o.history
}
