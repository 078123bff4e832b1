package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/pkg/logger"
	"ai-mediagen-be/internal/repository/memory"
	"ai-mediagen-be/internal/repository/unitofwork"
	"ai-mediagen-be/pkg/credits"
	"ai-mediagen-be/pkg/events"
	pktNats "ai-mediagen-be/pkg/nats"
	"ai-mediagen-be/pkg/provider"
	"ai-mediagen-be/pkg/storage"
	"ai-mediagen-be/pkg/store"

	"github.com/google/uuid"
)

// ClientFactory builds the JobClient for a provider name with a resolved key.
// Injected so tests can substitute fake providers.
type ClientFactory func(name, apiKey string) (provider.JobClient, error)

// IMaterializer is the persistence step of the pipeline; satisfied by
// *storage.Materializer.
type IMaterializer interface {
	Persist(ctx context.Context, data []byte, contentType, path, sourceURL string) (*storage.MaterializedAsset, error)
}

type IGenerationService interface {
	Generate(ctx context.Context, userId uuid.UUID, req *dto.GenerateRequest, input *provider.InputFile) (*dto.GenerateResponse, error)
	GetJobStatus(ctx context.Context, userId uuid.UUID, referenceId uuid.UUID) (*dto.JobStatusResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.GenerationHistoryItem, error)
}

type generationService struct {
	uowFactory      unitofwork.RepositoryFactory
	ledger          ICreditLedgerService
	newClient       ClientFactory
	keys            *provider.KeyResolver
	materializer    IMaterializer
	catalog         *credits.Catalog
	tracker         *memory.JobTracker
	publisher       IPublisherService
	eventPublisher  *pktNats.Publisher
	logger          logger.ILogger
	pollInterval    time.Duration
	pollMaxAttempts int
}

func NewGenerationService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ICreditLedgerService,
	newClient ClientFactory,
	keys *provider.KeyResolver,
	materializer IMaterializer,
	catalog *credits.Catalog,
	tracker *memory.JobTracker,
	publisher IPublisherService,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
	pollInterval time.Duration,
	pollMaxAttempts int,
) IGenerationService {
	return &generationService{
		uowFactory:      uowFactory,
		ledger:          ledger,
		newClient:       newClient,
		keys:            keys,
		materializer:    materializer,
		catalog:         catalog,
		tracker:         tracker,
		publisher:       publisher,
		eventPublisher:  eventPublisher,
		logger:          sysLogger,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
	}
}

// Generate runs one attempt through the whole pipeline:
// reserve -> submit -> poll -> materialize -> commit|refund.
// Every exit past the reservation settles the ledger exactly once; the refund
// lives in the deferred block keyed on the settled flag so no error branch can
// leak an un-refunded reservation.
func (s *generationService) Generate(ctx context.Context, userId uuid.UUID, req *dto.GenerateRequest, input *provider.InputFile) (res *dto.GenerateResponse, err error) {
	cost, costErr := s.catalog.Cost(req.Provider, req.Kind, req.DurationSeconds)
	if costErr != nil {
		return nil, &GenerationError{Code: ErrCodeValidation, Message: costErr.Error()}
	}

	apiKey, keyErr := s.keys.Resolve(req.Provider, req.ApiKey)
	if keyErr != nil {
		return nil, &GenerationError{Code: ErrCodeValidation, Message: keyErr.Error()}
	}

	client, clientErr := s.newClient(req.Provider, apiKey)
	if clientErr != nil {
		return nil, &GenerationError{Code: ErrCodeValidation, Message: clientErr.Error()}
	}

	referenceId := uuid.New()
	reason := fmt.Sprintf("%s generation via %s", req.Kind, req.Provider)

	balance, reserveErr := s.ledger.Reserve(ctx, userId, cost, referenceId, reason)
	if errors.Is(reserveErr, ErrInsufficientCredits) {
		return nil, &GenerationError{
			Code:       ErrCodeInsufficientCredits,
			Message:    fmt.Sprintf("this generation costs %d credits, balance is %d", cost, balance),
			NewBalance: balance,
		}
	}
	if reserveErr != nil {
		// The reservation did not durably succeed; nothing to settle, and the
		// provider must not be called.
		return nil, reserveErr
	}

	// The caller disconnecting must not skip settlement, so the pipeline runs
	// on a detached context from here on.
	pctx := context.WithoutCancel(ctx)

	job := &store.JobState{
		ReferenceId: referenceId,
		UserId:      userId,
		Kind:        req.Kind,
		Provider:    req.Provider,
		Status:      string(entity.JobStatusReserved),
	}
	s.tracker.Save(job)

	settled := false
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline", "panic during generation", map[string]interface{}{
				"reference_id": referenceId,
				"panic":        fmt.Sprintf("%v", r),
			})
			err = &GenerationError{Code: ErrCodeProviderTransient, Message: "internal pipeline failure"}
		}
		if settled {
			return
		}

		genErr, ok := err.(*GenerationError)
		if !ok {
			genErr = &GenerationError{Code: ErrCodeProviderTransient, Message: err.Error()}
		}

		if genErr.Refundable() {
			newBalance, refundErr := s.ledger.Refund(pctx, userId, cost, referenceId, string(genErr.Code))
			if refundErr != nil {
				s.logger.Error("pipeline", "refund failed", map[string]interface{}{
					"reference_id": referenceId,
					"error":        refundErr.Error(),
				})
			} else {
				genErr.Refunded = true
				genErr.NewBalance = newBalance
			}
		}
		err = genErr

		status := entity.JobStatusFailed
		if genErr.Code == ErrCodeTimedOut {
			status = entity.JobStatusTimedOut
		}
		job.Status = string(status)
		s.tracker.Save(job)

		errCode := string(genErr.Code)
		s.recordAttempt(pctx, userId, referenceId, req, cost, status, &errCode, nil)
		s.announceSettled(pctx, userId, referenceId, req, cost, true)
	}()

	job.Status = string(entity.JobStatusSubmitted)
	s.tracker.Save(job)

	submitted, submitErr := client.Submit(pctx, &provider.Request{
		Kind:            req.Kind,
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		Width:           req.Width,
		Height:          req.Height,
		Params:          req.Params,
		InputFile:       input,
	})
	if submitErr != nil {
		return nil, s.classifyProviderError(req.Provider, submitErr)
	}

	var asset *provider.Asset
	needsFetch := false

	if submitted.Immediate != nil {
		asset = submitted.Immediate
	} else {
		job.Status = string(entity.JobStatusPolling)
		s.tracker.Save(job)

		pollRes, pollErr := s.pollUntilDone(pctx, client, submitted.TaskID, job)
		if pollErr != nil {
			return nil, pollErr
		}
		asset = pollRes.Asset
		needsFetch = pollRes.NeedsFetch
	}

	if needsFetch {
		fetched, fetchErr := client.FetchContent(pctx, submitted.TaskID)
		if fetchErr != nil {
			return nil, s.classifyProviderError(req.Provider, fetchErr)
		}
		asset = fetched
	}

	// A job reported completed but with nothing retrievable is a failure the
	// user must not pay for.
	if asset == nil || len(asset.Data) == 0 {
		return nil, &GenerationError{
			Code:    ErrCodeMaterialization,
			Message: "generation completed but produced no retrievable content",
		}
	}

	path := fmt.Sprintf("%s/%s/%s%s", req.Kind, userId, referenceId, extensionFor(asset.ContentType))
	materialized, matErr := s.materializer.Persist(pctx, asset.Data, asset.ContentType, path, asset.URL)
	if matErr != nil {
		return nil, &GenerationError{Code: ErrCodeMaterialization, Message: matErr.Error()}
	}

	if commitErr := s.ledger.Commit(pctx, referenceId); commitErr != nil {
		// Leave the deferred guard to refund; the user keeps their credits and
		// the attempt is reported as failed.
		return nil, fmt.Errorf("settle charge for %s: %w", referenceId, commitErr)
	}
	settled = true

	job.Status = string(entity.JobStatusCompleted)
	s.tracker.Save(job)

	s.recordAttempt(pctx, userId, referenceId, req, cost, entity.JobStatusCompleted, nil, materialized)
	s.announceSettled(pctx, userId, referenceId, req, cost, false)

	newBalance, balErr := s.ledger.GetBalance(pctx, userId)
	if balErr != nil {
		newBalance = balance
	}

	return &dto.GenerateResponse{
		ReferenceId:     referenceId,
		Kind:            req.Kind,
		Provider:        req.Provider,
		ResultURL:       materialized.DurableURL,
		ContentType:     materialized.ContentType,
		DurationSeconds: req.DurationSeconds,
		SizeBytes:       materialized.SizeBytes,
		Degraded:        materialized.Degraded,
		Cost:            cost,
		NewBalance:      newBalance,
	}, nil
}

// pollUntilDone drives the fixed-interval poll loop. The attempt budget is the
// only timeout: transient poll errors consume attempts rather than resetting
// the counter, so flakiness cannot extend the ceiling.
func (s *generationService) pollUntilDone(ctx context.Context, client provider.JobClient, taskID string, job *store.JobState) (*provider.PollResult, error) {
	for attempt := 1; attempt <= s.pollMaxAttempts; attempt++ {
		if attempt > 1 && s.pollInterval > 0 {
			time.Sleep(s.pollInterval)
		}

		job.PollAttempt = attempt
		s.tracker.Save(job)

		res, err := client.Poll(ctx, taskID)
		if err != nil {
			if errors.Is(err, provider.ErrStatusNotFound) && attempt == 1 {
				// No status resource for an instantaneous job; the asset is
				// already available and must be fetched directly.
				return &provider.PollResult{Status: provider.PollStatusCompleted, NeedsFetch: true}, nil
			}
			s.logger.Warn("pipeline", "poll attempt failed", map[string]interface{}{
				"task_id": taskID,
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		switch res.Status {
		case provider.PollStatusCompleted:
			return res, nil
		case provider.PollStatusFailed:
			if provider.IsPolicyCode(res.ErrCode) {
				return nil, &GenerationError{
					Code:    ErrCodeContentPolicy,
					Message: "the provider declined this prompt; please adjust your input and try again",
				}
			}
			return nil, &GenerationError{
				Code:    ErrCodeProviderTransient,
				Message: fmt.Sprintf("generation failed at provider: %s", res.ErrMessage),
			}
		}
		// pending: keep going
	}

	return nil, &GenerationError{
		Code:    ErrCodeTimedOut,
		Message: fmt.Sprintf("no result after %d poll attempts", s.pollMaxAttempts),
	}
}

func (s *generationService) classifyProviderError(providerName string, err error) *GenerationError {
	pe := provider.AsError(providerName, err)
	switch pe.Kind {
	case provider.ErrorPolicyBlocked:
		return &GenerationError{
			Code:    ErrCodeContentPolicy,
			Message: "the provider declined this prompt; please adjust your input and try again",
		}
	case provider.ErrorTransient:
		return &GenerationError{Code: ErrCodeProviderTransient, Message: pe.Message}
	default:
		return &GenerationError{Code: ErrCodeProviderRejected, Message: pe.Message}
	}
}

// recordAttempt persists the attempt for the history endpoint. Best effort:
// a write failure here must not disturb an already-settled pipeline.
func (s *generationService) recordAttempt(
	ctx context.Context,
	userId, referenceId uuid.UUID,
	req *dto.GenerateRequest,
	cost int,
	status entity.JobStatus,
	errorCode *string,
	materialized *storage.MaterializedAsset,
) {
	record := &entity.GenerationRecord{
		Id:          uuid.New(),
		UserId:      userId,
		ReferenceId: referenceId,
		Kind:        entity.GenerationKind(req.Kind),
		Provider:    req.Provider,
		Prompt:      req.Prompt,
		Params:      req.Params,
		Cost:        cost,
		Status:      status,
		ErrorCode:   errorCode,
	}
	if materialized != nil {
		record.ResultURL = &materialized.DurableURL
		record.ContentType = &materialized.ContentType
		record.SizeBytes = &materialized.SizeBytes
		record.Degraded = materialized.Degraded
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.GenerationRepository().Create(ctx, record); err != nil {
		s.logger.Error("pipeline", "failed to persist generation record", map[string]interface{}{
			"reference_id": referenceId,
			"error":        err.Error(),
		})
	}
}

func (s *generationService) announceSettled(ctx context.Context, userId, referenceId uuid.UUID, req *dto.GenerateRequest, cost int, refunded bool) {
	if s.publisher != nil {
		msg := &dto.GenerationSettledMessage{
			UserId:      userId,
			ReferenceId: referenceId,
			Provider:    req.Provider,
			Kind:        req.Kind,
			Cost:        cost,
			Refunded:    refunded,
			OccurredAt:  time.Now(),
		}
		if err := s.publisher.PublishSettled(ctx, msg); err != nil {
			s.logger.Warn("pipeline", "failed to publish settled message", map[string]interface{}{
				"reference_id": referenceId,
				"error":        err.Error(),
			})
		}
	}

	if s.eventPublisher != nil {
		eventType := "GENERATION_COMPLETED"
		if refunded {
			eventType = "GENERATION_REFUNDED"
		}
		evt := events.BaseEvent{
			Type: eventType,
			Data: map[string]interface{}{
				"user_id":      userId,
				"reference_id": referenceId,
				"provider":     req.Provider,
				"kind":         req.Kind,
				"cost":         cost,
				"occurred_at":  time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("pipeline", "failed to publish event", map[string]interface{}{
				"reference_id": referenceId,
				"error":        err.Error(),
			})
		}
	}
}

func (s *generationService) GetJobStatus(ctx context.Context, userId uuid.UUID, referenceId uuid.UUID) (*dto.JobStatusResponse, error) {
	if state, found := s.tracker.Get(referenceId.String()); found {
		if state.UserId != userId {
			return nil, nil
		}
		return &dto.JobStatusResponse{
			ReferenceId: state.ReferenceId,
			Status:      state.Status,
			Kind:        state.Kind,
			Provider:    state.Provider,
			PollAttempt: state.PollAttempt,
			UpdatedAt:   state.UpdatedAt,
		}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.GenerationRepository().FindByReferenceId(ctx, referenceId)
	if err != nil {
		return nil, err
	}
	if record == nil || record.UserId != userId {
		return nil, nil
	}

	return &dto.JobStatusResponse{
		ReferenceId: record.ReferenceId,
		Status:      string(record.Status),
		Kind:        string(record.Kind),
		Provider:    record.Provider,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}

func (s *generationService) GetHistory(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.GenerationHistoryItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.GenerationRepository().ListByUser(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	var items []*dto.GenerationHistoryItem
	for _, r := range records {
		items = append(items, &dto.GenerationHistoryItem{
			ReferenceId: r.ReferenceId,
			Kind:        string(r.Kind),
			Provider:    r.Provider,
			Prompt:      r.Prompt,
			Cost:        r.Cost,
			Status:      string(r.Status),
			ErrorCode:   r.ErrorCode,
			ResultURL:   r.ResultURL,
			Degraded:    r.Degraded,
			CreatedAt:   r.CreatedAt,
		})
	}

	return items, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	default:
		return ""
	}
}
