// Package patch orchestrates a submission end to end: allowance check,
// follow-up classification, assignment resolution, context construction,
// generation, history append and persistence.
package patch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/ledger"
	"github.com/realitypatch/realitypatch/internal/models"
	"github.com/realitypatch/realitypatch/internal/services/ai"
	"github.com/realitypatch/realitypatch/internal/session"
	"github.com/realitypatch/realitypatch/internal/store"
)

// recentCompletedInContext bounds how many completed assignments are included
// as generation context.
const recentCompletedInContext = 3

// Service coordinates one request through the core pipeline. Within a request
// operations are strictly sequential; across requests the record store is
// last-write-wins (see store package for the contended credit path).
type Service struct {
	store      store.RecordStore
	provider   ai.Provider
	classifier session.FollowUpClassifier
	resolver   session.AssignmentResolver
	history    *session.HistoryManager
	dailyLimit int
	logger     *zap.Logger
}

// NewService creates the orchestration service.
func NewService(recordStore store.RecordStore, provider ai.Provider, classifier session.FollowUpClassifier, resolver session.AssignmentResolver, history *session.HistoryManager, dailyLimit int, logger *zap.Logger) *Service {
	if dailyLimit <= 0 {
		dailyLimit = ledger.DefaultDailyLimit
	}
	return &Service{
		store:      recordStore,
		provider:   provider,
		classifier: classifier,
		resolver:   resolver,
		history:    history,
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// QuotaExceededError is the structured not-allowed outcome of an allowance
// check. It is an expected decision, surfaced as a typed error so transports
// can render remaining-count and reset time.
type QuotaExceededError struct {
	Allowance ledger.Allowance
	ResetAt   time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily limit reached (%d/%d, resets %s)", e.Allowance.Count, e.Allowance.Limit, e.ResetAt.Format(time.RFC3339))
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Patch                 string
	SessionID             string
	IsFollowUp            bool
	Match                 session.Match
	CompletedAssignmentID *int64
	Usage                 ledger.Allowance
	HistoryCount          int
}

// Submit runs the full pipeline for one user message. On failure the record
// keeps its last persisted state; no partial in-memory mutation is flushed.
func (s *Service) Submit(ctx context.Context, sessionID, userText string) (*SubmitResult, error) {
	now := time.Now()

	record, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	allowance := ledger.CheckAllowance(record, s.dailyLimit, now)
	if !allowance.Allowed {
		return nil, &QuotaExceededError{Allowance: allowance, ResetAt: ledger.ResetTime(now)}
	}

	last := record.LastInteraction()
	isFollowUp := s.classifier.Classify(userText, last, now)

	match := session.Match{Kind: session.MatchNone}
	if isFollowUp {
		match = s.resolver.Resolve(userText, record.History)
	}

	pending := models.PendingAssignments(record.History, session.DefaultMaxPendingConsidered)
	completed := models.CompletedAssignments(record.History, recentCompletedInContext)
	contextual := session.BuildContext(userText, last, isFollowUp, pending, completed, session.IsMassClaim(userText), now)

	patchText, err := s.provider.GeneratePatch(ai.WithSessionID(ctx, sessionID), contextual)
	if err != nil {
		return nil, fmt.Errorf("generate patch: %w", err)
	}

	var completedID *int64
	if match.Kind == session.MatchAssignment {
		if s.history.MarkCompleted(record, match.AssignmentID, now) {
			id := match.AssignmentID
			completedID = &id
		}
	}

	s.history.Append(record, models.Interaction{
		Input:      userText,
		Response:   patchText,
		IsFollowUp: isFollowUp,
	}, now)

	ledger.RecordRequest(record, allowance.UsingCredit, now)

	if err := s.store.Save(ctx, sessionID, record); err != nil {
		return nil, fmt.Errorf("persist user record: %w", err)
	}

	s.log(sessionID, isFollowUp, match, allowance)

	return &SubmitResult{
		Patch:                 patchText,
		SessionID:             sessionID,
		IsFollowUp:            isFollowUp,
		Match:                 match,
		CompletedAssignmentID: completedID,
		Usage:                 ledger.CheckAllowance(record, s.dailyLimit, now),
		HistoryCount:          len(record.History),
	}, nil
}

// UserData is the history + usage + credits snapshot for a session.
type UserData struct {
	History       []models.Interaction
	Usage         ledger.Allowance
	ExtraCredits  int
	CreditsExpiry *time.Time
}

// UserData returns the current snapshot for a session.
func (s *Service) UserData(ctx context.Context, sessionID string) (*UserData, error) {
	now := time.Now()

	record, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	return &UserData{
		History:       record.History,
		Usage:         ledger.CheckAllowance(record, s.dailyLimit, now),
		ExtraCredits:  record.EffectiveExtraCredits(now),
		CreditsExpiry: record.CreditsExpiry,
	}, nil
}

// GrantResult reports a verified credit grant.
type GrantResult struct {
	Total  int
	Expiry time.Time
}

// GrantCredits adds bonus credits through the verified store path. A
// verification failure propagates as store.ErrVerifyFailed and must not be
// treated as success.
func (s *Service) GrantCredits(ctx context.Context, sessionID string, amount, expiryHours int) (*GrantResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if expiryHours <= 0 {
		return nil, fmt.Errorf("credit expiry must be positive, got %d hours", expiryHours)
	}

	expiry := time.Now().Add(time.Duration(expiryHours) * time.Hour).UTC()
	total, err := s.store.AddCredits(ctx, sessionID, amount, expiry)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("credits_granted",
			zap.Int("amount", amount),
			zap.Int("total", total),
			zap.Time("expiry", expiry),
		)
	}

	return &GrantResult{Total: total, Expiry: expiry}, nil
}

func (s *Service) log(sessionID string, isFollowUp bool, match session.Match, allowance ledger.Allowance) {
	if s.logger == nil {
		return
	}
	s.logger.Info("patch_submitted",
		zap.Bool("is_follow_up", isFollowUp),
		zap.String("match", string(match.Kind)),
		zap.Bool("using_credit", allowance.UsingCredit),
		zap.Int("usage_count", allowance.Count),
	)
}
