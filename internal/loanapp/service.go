// Package loanapp orchestrates loan application intake: applicant
// verification, file checks and storage, and the application records.
// Every operation returns a result value; failures never escape as errors.
package loanapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"loan-intake/internal/common/config"
	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake"
	"loan-intake/internal/models"
	"loan-intake/internal/notify"
	"loan-intake/internal/search"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	MsgApplicantNotFound = "Invalid user ID. Member account does not exist."
	MsgApplicantInactive = "Member account is inactive. Please contact support."
	MsgApplicantUnknown  = "Unable to validate member account."
	MsgNoFile            = "No file provided."
	MsgInvalidFileType   = "Invalid file type. Only JPG/JPEG files are allowed."
	MsgSubmitted         = "Loan application submitted successfully."
	MsgNotFound          = "Application not found"
)

// Submit stages, in order.
const (
	stageVerifyingApplicant = "verifying_applicant"
	stageCheckingPresence   = "checking_file_presence"
	stageCheckingSize       = "checking_file_size"
	stageWritingFile        = "writing_temp_file"
	stageValidatingImage    = "validating_image"
	stageEnsuringSchema     = "ensuring_schema"
	stageInsertingRecord    = "inserting_record"
	stageDone               = "done"
)

const outcomeSuccess = "success"

type ApplicantVerifier interface {
	IsActive(ctx context.Context, id string) (bool, error)
	Lookup(ctx context.Context, id string) (*models.Applicant, error)
}

type ApplicationStore interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, applicantID, filePath, status string) (int64, error)
	List(ctx context.Context, applicantID *string) ([]models.ApplicationView, error)
	Get(ctx context.Context, id int64) (*models.ApplicationView, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, *string, error)
	RecordStatusChange(ctx context.Context, id int64, previous *string, status string) error
	History(ctx context.Context, id int64) ([]models.StatusChange, error)
}

type SearchIndexer interface {
	IndexApplication(ctx context.Context, doc search.ApplicationDocument) error
	UpdateStatus(ctx context.Context, applicationID int64, status string) error
}

type Notifier interface {
	ApplicationSubmitted(ctx context.Context, applicationID int64, applicantID, filePath string) error
	StatusChanged(ctx context.Context, change notify.StatusChange) error
}

type Service struct {
	storage   config.StorageConfig
	verifier  ApplicantVerifier
	store     ApplicationStore
	validator *intake.Validator
	names     *intake.NameGenerator
	indexer   SearchIndexer
	notifier  Notifier
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithSearchIndexer(idx SearchIndexer) Option {
	return func(s *Service) { s.indexer = idx }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *Service) { s.obs = obs }
}

func WithNameGenerator(g *intake.NameGenerator) Option {
	return func(s *Service) { s.names = g }
}

func NewService(storage config.StorageConfig, verifier ApplicantVerifier, store ApplicationStore, log logger.Logger, opts ...Option) *Service {
	if storage.MaxFileSize <= 0 {
		storage.MaxFileSize = config.DefaultMaxFileSize
	}
	if storage.UploadDir == "" {
		storage.UploadDir = "loan_applications"
	}

	s := &Service{
		storage:   storage,
		verifier:  verifier,
		store:     store,
		validator: intake.NewValidator(storage.AllowedExtensions, storage.AllowedMIMETypes, intake.WithMaxPixels(storage.MaxPixels)),
		names:     intake.NewNameGenerator(storage.NamePrefix),
		obs:       observability.Nop(),
		logger:    log.WithFields(map[string]interface{}{"component": "loan-service"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate prepares the process for intake: the upload directory and the
// application tables. Run once at startup.
func (s *Service) Migrate(ctx context.Context) error {
	if err := os.MkdirAll(s.storage.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir %s: %w", s.storage.UploadDir, err)
	}
	if err := s.store.EnsureSchema(ctx); err != nil {
		return err
	}
	s.logger.Info("migration complete", map[string]interface{}{"uploadDir": s.storage.UploadDir})
	return nil
}

// Submit runs the intake pipeline for one upload. A nil upload, or one
// without a name, counts as no file.
func (s *Service) Submit(ctx context.Context, applicantID string, upload intake.Upload) (result *SubmitResult) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "loanapp.submit", attribute.String("loan.applicant_id", applicantID))
	log := s.logger.WithFields(map[string]interface{}{"operation": "submit", "applicantId": applicantID})

	stage := stageVerifyingApplicant
	enter := func(next string) {
		stage = next
		span.AddEvent(next)
		log.Debug("submit stage", map[string]interface{}{"stage": next})
	}

	defer func() {
		outcome := outcomeOf(result.Code)
		metrics.LoanSubmissions.WithLabelValues(outcome).Inc()
		s.finish(ctx, span, "submit", outcome, start, result.Code, result.Message)
		if !result.Success {
			log.Info("submission rejected", map[string]interface{}{
				"stage":   stage,
				"code":    string(result.Code),
				"message": result.Message,
			})
		}
	}()

	enter(stageVerifyingApplicant)
	if res := s.verifyApplicant(ctx, applicantID); res != nil {
		return res
	}

	enter(stageCheckingPresence)
	if upload == nil || upload.Name() == "" {
		metrics.IntakeRejections.WithLabelValues("presence").Inc()
		return submitFailure(apperrors.ErrCodeFileMissing, MsgNoFile)
	}

	enter(stageCheckingSize)
	size, err := upload.Size()
	if err != nil {
		return submitFailure(apperrors.ErrCodeInternal, processingError(err))
	}
	if size > s.storage.MaxFileSize {
		metrics.IntakeRejections.WithLabelValues("size").Inc()
		return submitFailure(apperrors.ErrCodeFileTooLarge, FileTooLargeMessage(s.storage.MaxFileSize))
	}

	enter(stageWritingFile)
	name := s.names.Generate(intake.SanitizeFilename(upload.Name()))
	path := filepath.Join(s.storage.UploadDir, name)
	if err := upload.SaveTo(path); err != nil {
		return submitFailure(apperrors.ErrCodeFileStoreFailed, processingError(err))
	}

	enter(stageValidatingImage)
	if reason := s.validator.Check(path); reason != intake.ReasonNone {
		s.removeFile(log, path)
		metrics.IntakeRejections.WithLabelValues(string(reason)).Inc()
		return submitFailure(apperrors.ErrCodeInvalidFileType, MsgInvalidFileType)
	}

	// Tables are created by Migrate at startup.
	enter(stageEnsuringSchema)

	enter(stageInsertingRecord)
	id, err := s.store.Insert(ctx, applicantID, path, models.StatusPending)
	if err != nil {
		s.removeFile(log, path)
		return submitFailure(apperrors.ErrCodeDatabaseError, "Database error: "+err.Error())
	}

	enter(stageDone)
	s.afterSubmit(ctx, log, id, applicantID, path)

	return &SubmitResult{
		Success:       true,
		Message:       MsgSubmitted,
		ApplicationID: &id,
		FilePath:      path,
	}
}

// verifyApplicant returns nil when the applicant may submit.
func (s *Service) verifyApplicant(ctx context.Context, applicantID string) *SubmitResult {
	active, err := s.verifier.IsActive(ctx, applicantID)
	if err != nil {
		return submitFailure(apperrors.ErrCodeApplicantCheckFailed, processingError(err))
	}
	if active {
		return nil
	}

	applicant, err := s.verifier.Lookup(ctx, applicantID)
	switch {
	case err != nil:
		return submitFailure(apperrors.ErrCodeApplicantCheckFailed, processingError(err))
	case applicant == nil:
		return submitFailure(apperrors.ErrCodeApplicantNotFound, MsgApplicantNotFound)
	case !applicant.IsActive:
		return submitFailure(apperrors.ErrCodeApplicantInactive, MsgApplicantInactive)
	default:
		// Activated between the two reads.
		return submitFailure(apperrors.ErrCodeInvalidRequest, MsgApplicantUnknown)
	}
}

func (s *Service) afterSubmit(ctx context.Context, log logger.Logger, id int64, applicantID, path string) {
	if s.indexer != nil {
		doc := search.ApplicationDocument{
			ApplicationID: id,
			ApplicantID:   applicantID,
			FilePath:      path,
			Status:        models.StatusPending,
			SubmittedAt:   s.now().UTC().Format(time.RFC3339),
		}
		if err := s.indexer.IndexApplication(ctx, doc); err != nil {
			log.Warn("failed to index application", map[string]interface{}{"applicationId": id, "error": err})
		}
	}
	if s.notifier != nil {
		if err := s.notifier.ApplicationSubmitted(ctx, id, applicantID, path); err != nil {
			log.Warn("failed to publish submitted event", map[string]interface{}{"applicationId": id, "error": err})
		}
	}
}

// List returns applications newest first. A nil or empty applicantID lists
// every application.
func (s *Service) List(ctx context.Context, applicantID *string) (result *ListResult) {
	start := time.Now()
	var attrs []attribute.KeyValue
	if applicantID != nil {
		attrs = append(attrs, attribute.String("loan.applicant_id", *applicantID))
	}
	ctx, span := s.obs.StartSpan(ctx, "loanapp.list", attrs...)
	defer func() {
		s.finish(ctx, span, "list", outcomeOf(result.Code), start, result.Code, result.Message)
	}()

	apps, err := s.store.List(ctx, applicantID)
	if err != nil {
		s.logger.Error("list applications failed", map[string]interface{}{"error": err})
		return &ListResult{
			Success:      false,
			Message:      "Error retrieving loan applications: " + err.Error(),
			Applications: []models.ApplicationView{},
			Code:         apperrors.ErrCodeDatabaseError,
		}
	}
	return &ListResult{Success: true, Applications: apps}
}

// UpdateStatus overwrites an application's status with any value the
// caller supplies.
func (s *Service) UpdateStatus(ctx context.Context, applicationID int64, status string) (result *UpdateResult) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "loanapp.update_status",
		attribute.Int64("loan.application_id", applicationID),
		attribute.String("loan.status", status),
	)
	log := s.logger.WithFields(map[string]interface{}{"operation": "update_status", "applicationId": applicationID})
	defer func() {
		outcome := outcomeOf(result.Code)
		metrics.StatusUpdates.WithLabelValues(outcome).Inc()
		s.finish(ctx, span, "update_status", outcome, start, result.Code, result.Message)
	}()

	found, previous, err := s.store.UpdateStatus(ctx, applicationID, status)
	if err != nil {
		log.Error("status update failed", map[string]interface{}{"error": err})
		return &UpdateResult{
			Message: "Error updating application status: " + err.Error(),
			Code:    apperrors.ErrCodeDatabaseError,
		}
	}
	if !found {
		return &UpdateResult{Message: MsgNotFound, Code: apperrors.ErrCodeApplicationNotFound}
	}

	s.afterStatusUpdate(ctx, log, applicationID, previous, status)

	log.Info("status updated", map[string]interface{}{"status": status})
	return &UpdateResult{Success: true, Message: "Application status updated to " + status}
}

func (s *Service) afterStatusUpdate(ctx context.Context, log logger.Logger, id int64, previous *string, status string) {
	if err := s.store.RecordStatusChange(ctx, id, previous, status); err != nil {
		log.Warn("failed to record status history", map[string]interface{}{"error": err})
	}
	if s.indexer != nil {
		if err := s.indexer.UpdateStatus(ctx, id, status); err != nil {
			log.Warn("failed to update search index", map[string]interface{}{"error": err})
		}
	}
	if s.notifier == nil {
		return
	}

	view, err := s.store.Get(ctx, id)
	if err != nil || view == nil {
		log.Warn("cannot load applicant for status email", map[string]interface{}{"error": err})
		return
	}
	change := notify.StatusChange{ApplicationID: id, Status: status}
	if view.UserEmail != nil {
		change.RecipientEmail = *view.UserEmail
	}
	if view.UserName != nil {
		change.RecipientName = *view.UserName
	}
	if err := s.notifier.StatusChanged(ctx, change); err != nil {
		log.Warn("failed to send status email", map[string]interface{}{"error": err})
	}
}

// Get returns one application with its status history. History is
// best-effort and omitted when it cannot be read.
func (s *Service) Get(ctx context.Context, applicationID int64) (result *GetResult) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "loanapp.get", attribute.Int64("loan.application_id", applicationID))
	defer func() {
		s.finish(ctx, span, "get", outcomeOf(result.Code), start, result.Code, result.Message)
	}()

	view, err := s.store.Get(ctx, applicationID)
	if err != nil {
		return &GetResult{
			Message: "Error retrieving loan application: " + err.Error(),
			Code:    apperrors.ErrCodeDatabaseError,
		}
	}
	if view == nil {
		return &GetResult{Message: MsgNotFound, Code: apperrors.ErrCodeApplicationNotFound}
	}

	history, err := s.store.History(ctx, applicationID)
	if err != nil {
		s.logger.Warn("failed to load status history", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err,
		})
	}
	return &GetResult{Success: true, Application: view, History: history}
}

func (s *Service) finish(ctx context.Context, span trace.Span, operation, outcome string, start time.Time, code apperrors.ErrorCode, message string) {
	elapsed := time.Since(start)
	metrics.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	s.obs.RecordOperation(ctx, operation, outcome, elapsed)

	var spanErr error
	if code != "" && !apperrors.IsValidation(code) {
		spanErr = apperrors.New(code, message)
	}
	observability.EndSpan(span, outcome, spanErr)
}

func (s *Service) removeFile(log logger.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove rejected file", map[string]interface{}{"path": path, "error": err})
	}
}

func outcomeOf(code apperrors.ErrorCode) string {
	if code == "" {
		return outcomeSuccess
	}
	return string(code)
}

func processingError(err error) string {
	return "Error processing loan application: " + err.Error()
}
