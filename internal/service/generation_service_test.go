package service

import (
	"context"
	"errors"
	"testing"

	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/memory"
	"ai-mediagen-be/pkg/credits"
	"ai-mediagen-be/pkg/provider"
	"ai-mediagen-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollStep struct {
	res *provider.PollResult
	err error
}

// scriptedClient plays back a fixed provider conversation. Poll repeats its
// last step once the script runs out.
type scriptedClient struct {
	submitResult *provider.SubmitResult
	submitErr    error
	pollScript   []pollStep
	fetchAsset   *provider.Asset
	fetchErr     error

	submitCalls int
	pollCalls   int
	fetchCalls  int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Submit(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	c.submitCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return c.submitResult, nil
}

func (c *scriptedClient) Poll(ctx context.Context, taskID string) (*provider.PollResult, error) {
	c.pollCalls++
	idx := c.pollCalls - 1
	if idx >= len(c.pollScript) {
		idx = len(c.pollScript) - 1
	}
	step := c.pollScript[idx]
	return step.res, step.err
}

func (c *scriptedClient) FetchContent(ctx context.Context, taskID string) (*provider.Asset, error) {
	c.fetchCalls++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.fetchAsset, nil
}

type fakeMaterializer struct {
	asset    *storage.MaterializedAsset
	err      error
	lastPath string
	calls    int
}

func (m *fakeMaterializer) Persist(ctx context.Context, data []byte, contentType, path, sourceURL string) (*storage.MaterializedAsset, error) {
	m.calls++
	m.lastPath = path
	if m.err != nil {
		return nil, m.err
	}
	if m.asset != nil {
		return m.asset, nil
	}
	return &storage.MaterializedAsset{
		DurableURL:  "https://store.example.com/" + path,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

type pipelineFixture struct {
	store   *memStore
	client  *scriptedClient
	mat     *fakeMaterializer
	tracker *memory.JobTracker
	svc     IGenerationService
	userId  uuid.UUID
}

func newPipelineFixture(t *testing.T, balance int, client *scriptedClient, mat *fakeMaterializer) *pipelineFixture {
	t.Helper()

	store := newMemStore()
	userId := uuid.New()
	store.seedAccount(userId, balance)

	factory := &fakeFactory{store: store}
	tracker := memory.NewJobTracker()

	svc := NewGenerationService(
		factory,
		NewCreditLedgerService(factory),
		func(name, apiKey string) (provider.JobClient, error) { return client, nil },
		provider.NewKeyResolver(map[string]string{
			"openai":    "sk-test",
			"stability": "sk-test",
			"runway":    "key-test",
		}),
		mat,
		credits.NewCatalog(),
		tracker,
		nil,
		nil,
		noopLogger{},
		0, // no sleeping between poll attempts in tests
		5,
	)

	return &pipelineFixture{
		store:   store,
		client:  client,
		mat:     mat,
		tracker: tracker,
		svc:     svc,
		userId:  userId,
	}
}

// videoRequest costs 40 credits: base 10 plus 5 per second for 6 seconds.
func videoRequest() *dto.GenerateRequest {
	return &dto.GenerateRequest{
		Kind:            "video",
		Provider:        "runway",
		Prompt:          "a lighthouse in a storm",
		DurationSeconds: 6,
	}
}

func asGenerationError(t *testing.T, err error) *GenerationError {
	t.Helper()
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	return genErr
}

func TestGenerateInsufficientCreditsNeverReachesProvider(t *testing.T) {
	client := &scriptedClient{}
	f := newPipelineFixture(t, 30, client, &fakeMaterializer{})

	res, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	require.Nil(t, res)

	genErr := asGenerationError(t, err)
	assert.Equal(t, ErrCodeInsufficientCredits, genErr.Code)
	assert.False(t, genErr.Refunded)
	assert.Equal(t, 30, genErr.NewBalance)

	assert.Zero(t, client.submitCalls)
	assert.Equal(t, 30, f.store.balanceOf(f.userId))
}

func TestGenerateUnknownProviderKindFailsBeforeReserve(t *testing.T) {
	client := &scriptedClient{}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	req := videoRequest()
	req.Provider = "openai" // openai sells images and audio, not video

	_, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	genErr := asGenerationError(t, err)
	assert.Equal(t, ErrCodeValidation, genErr.Code)
	assert.Zero(t, client.submitCalls)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGenerateAsyncSuccessCommitsCharge(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript: []pollStep{
			{res: &provider.PollResult{Status: provider.PollStatusPending}},
			{res: &provider.PollResult{Status: provider.PollStatusCompleted, NeedsFetch: true}},
		},
		fetchAsset: &provider.Asset{Data: []byte("mp4-bytes"), ContentType: "video/mp4"},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	res, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, 40, res.Cost)
	assert.Equal(t, 60, res.NewBalance)
	assert.False(t, res.Degraded)
	assert.Contains(t, res.ResultURL, res.ReferenceId.String())
	assert.Equal(t, 60, f.store.balanceOf(f.userId))
	assert.Equal(t, 1, client.fetchCalls)

	assert.Equal(t,
		[]entity.LedgerKind{entity.LedgerKindReserve, entity.LedgerKindCommit},
		f.store.ledgerKinds(res.ReferenceId))

	record, findErr := (&fakeGenerationRepo{store: f.store}).FindByReferenceId(context.Background(), res.ReferenceId)
	require.NoError(t, findErr)
	require.NotNil(t, record)
	assert.Equal(t, entity.JobStatusCompleted, record.Status)
}

func TestGenerateImmediateResultSkipsPolling(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{
			Immediate: &provider.Asset{Data: []byte("png-bytes"), ContentType: "image/png"},
		},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	req := &dto.GenerateRequest{Kind: "image", Provider: "openai", Prompt: "a fox"}
	res, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Cost)
	assert.Equal(t, 96, res.NewBalance)
	assert.Zero(t, client.pollCalls)
}

func TestGenerateTransientSubmitFailureRefunds(t *testing.T) {
	client := &scriptedClient{
		submitErr: &provider.Error{ProviderName: "runway", Kind: provider.ErrorTransient, Message: "upstream 503"},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeProviderTransient, genErr.Code)
	assert.True(t, genErr.Refunded)
	assert.Equal(t, 100, genErr.NewBalance)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGeneratePolicyBlockedRefunds(t *testing.T) {
	client := &scriptedClient{
		submitErr: &provider.Error{
			ProviderName: "runway",
			Kind:         provider.ErrorPolicyBlocked,
			Code:         "SAFETY",
			Message:      "content flagged",
		},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeContentPolicy, genErr.Code)
	assert.True(t, genErr.Refunded)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGeneratePollTimeoutRefunds(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript:   []pollStep{{res: &provider.PollResult{Status: provider.PollStatusPending}}},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeTimedOut, genErr.Code)
	assert.True(t, genErr.Refunded)
	assert.Equal(t, 100, genErr.NewBalance)
	// The attempt budget bounds the loop.
	assert.Equal(t, 5, client.pollCalls)

	record, findErr := (&fakeGenerationRepo{store: f.store}).ListByUser(context.Background(), f.userId, 0, 0)
	require.NoError(t, findErr)
	require.Len(t, record, 1)
	assert.Equal(t, entity.JobStatusTimedOut, record[0].Status)
}

func TestGenerateTransientPollErrorsConsumeAttempts(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript:   []pollStep{{err: errors.New("connection reset")}},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeTimedOut, genErr.Code)
	assert.Equal(t, 5, client.pollCalls)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGenerateFirstPollNotFoundShortCircuits(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript:   []pollStep{{err: provider.ErrStatusNotFound}},
		fetchAsset:   &provider.Asset{Data: []byte("mp4-bytes"), ContentType: "video/mp4"},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	res, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, client.pollCalls)
	assert.Equal(t, 1, client.fetchCalls)
	assert.Equal(t, 60, res.NewBalance)
}

func TestGeneratePollFailureWithPolicyCode(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript: []pollStep{
			{res: &provider.PollResult{
				Status:  provider.PollStatusFailed,
				ErrCode: "content_moderation",
			}},
		},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeContentPolicy, genErr.Code)
	assert.True(t, genErr.Refunded)
}

func TestGenerateCompletedWithNoBytesRefunds(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript: []pollStep{
			{res: &provider.PollResult{Status: provider.PollStatusCompleted, NeedsFetch: true}},
		},
		fetchAsset: &provider.Asset{ContentType: "video/mp4"}, // no data
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	_, err := f.svc.Generate(context.Background(), f.userId, videoRequest(), nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeMaterialization, genErr.Code)
	assert.True(t, genErr.Refunded)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGenerateStorageFailureRefunds(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{
			Immediate: &provider.Asset{Data: []byte("png-bytes"), ContentType: "image/png"},
		},
	}
	mat := &fakeMaterializer{err: errors.New("bucket unreachable")}
	f := newPipelineFixture(t, 100, client, mat)

	req := &dto.GenerateRequest{Kind: "image", Provider: "openai", Prompt: "a fox"}
	_, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	genErr := asGenerationError(t, err)

	assert.Equal(t, ErrCodeMaterialization, genErr.Code)
	assert.True(t, genErr.Refunded)
	assert.Equal(t, 100, f.store.balanceOf(f.userId))
}

func TestGenerateDegradedStorageStillCommits(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{
			Immediate: &provider.Asset{
				Data:        []byte("png-bytes"),
				URL:         "https://provider.example.com/tmp/abc.png",
				ContentType: "image/png",
			},
		},
	}
	mat := &fakeMaterializer{asset: &storage.MaterializedAsset{
		SourceURL:   "https://provider.example.com/tmp/abc.png",
		DurableURL:  "https://provider.example.com/tmp/abc.png",
		ContentType: "image/png",
		Degraded:    true,
	}}
	f := newPipelineFixture(t, 100, client, mat)

	req := &dto.GenerateRequest{Kind: "image", Provider: "openai", Prompt: "a fox"}
	res, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	require.NoError(t, err)

	// The user got a result, so the charge stands even though the durable
	// copy could not be made.
	assert.True(t, res.Degraded)
	assert.Equal(t, 96, f.store.balanceOf(f.userId))
}

type stubStore struct {
	name string
	err  error
}

func (s *stubStore) Name() string { return s.name }

func (s *stubStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://" + s.name + ".example.com/" + path, nil
}

func TestGenerateSecondaryStorageFallbackStillCommits(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{TaskID: "task-1"},
		pollScript: []pollStep{
			{res: &provider.PollResult{Status: provider.PollStatusCompleted, NeedsFetch: true}},
		},
		fetchAsset: &provider.Asset{Data: []byte("mp4-bytes"), ContentType: "video/mp4"},
	}
	mat := storage.NewMaterializer(
		&stubStore{name: "primary", err: storage.ErrBucketNotFound},
		&stubStore{name: "secondary"},
		noopLogger{},
	)

	store := newMemStore()
	userId := uuid.New()
	store.seedAccount(userId, 100)
	factory := &fakeFactory{store: store}

	svc := NewGenerationService(
		factory,
		NewCreditLedgerService(factory),
		func(name, apiKey string) (provider.JobClient, error) { return client, nil },
		provider.NewKeyResolver(map[string]string{"runway": "key-test"}),
		mat,
		credits.NewCatalog(),
		memory.NewJobTracker(),
		nil,
		nil,
		noopLogger{},
		0,
		5,
	)

	res, err := svc.Generate(context.Background(), userId, videoRequest(), nil)
	require.NoError(t, err)

	assert.Contains(t, res.ResultURL, "secondary.example.com")
	assert.False(t, res.Degraded)
	assert.Equal(t, 60, store.balanceOf(userId))
}

func TestGetJobStatusFromTrackerAndHistory(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{
			Immediate: &provider.Asset{Data: []byte("png-bytes"), ContentType: "image/png"},
		},
	}
	f := newPipelineFixture(t, 100, client, &fakeMaterializer{})

	req := &dto.GenerateRequest{Kind: "image", Provider: "openai", Prompt: "a fox"}
	res, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	require.NoError(t, err)

	status, err := f.svc.GetJobStatus(context.Background(), f.userId, res.ReferenceId)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, string(entity.JobStatusCompleted), status.Status)

	// Another user must not see this job.
	other, err := f.svc.GetJobStatus(context.Background(), uuid.New(), res.ReferenceId)
	require.NoError(t, err)
	assert.Nil(t, other)

	history, err := f.svc.GetHistory(context.Background(), f.userId, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.ReferenceId, history[0].ReferenceId)
	assert.Equal(t, "completed", history[0].Status)
}

func TestGenerateStoragePathIncludesUserAndReference(t *testing.T) {
	client := &scriptedClient{
		submitResult: &provider.SubmitResult{
			Immediate: &provider.Asset{Data: []byte("png-bytes"), ContentType: "image/png"},
		},
	}
	mat := &fakeMaterializer{}
	f := newPipelineFixture(t, 100, client, mat)

	req := &dto.GenerateRequest{Kind: "image", Provider: "openai", Prompt: "a fox"}
	res, err := f.svc.Generate(context.Background(), f.userId, req, nil)
	require.NoError(t, err)

	assert.Contains(t, mat.lastPath, f.userId.String())
	assert.Contains(t, mat.lastPath, res.ReferenceId.String())
	assert.Contains(t, mat.lastPath, ".png")
}
