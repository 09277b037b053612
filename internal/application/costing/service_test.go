package costing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/testutil"
	apperrors "github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

type ServiceTestSuite struct {
	suite.Suite
	store     *testutil.ReferenceStoreMock
	results   *testutil.ResultStoreMock
	archive   *mockArchiver
	events    *mockEvents
	narrative *mockNarrative
	metrics   *recordingMetrics
	logger    *testutil.MockLogger
	svc       Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = defaultStore(s.T())
	s.results = testutil.NewResultStoreMock()
	s.archive = new(mockArchiver)
	s.events = new(mockEvents)
	s.narrative = new(mockNarrative)
	s.metrics = &recordingMetrics{}
	s.logger = testutil.NewMockLogger()

	clock := newFakeClock()
	cache := NewReferenceCache(sources(s.store), nil, ReferenceCacheOptions{Clock: clock})
	svc, err := NewService(ServiceConfig{MaxJurisdictions: 3}, Dependencies{
		Cache:     cache,
		Narrative: s.narrative,
		Results:   s.results,
		Archive:   s.archive,
		Events:    s.events,
		Clock:     clock,
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func usInput() domainCosting.CalculationInput {
	return domainCosting.CalculationInput{
		Jurisdictions:      []domainCosting.Jurisdiction{"us"},
		ClaimCount:         10,
		PageCount:          20,
		ProtectionDuration: 20,
	}
}

func (s *ServiceTestSuite) TestCalculate_PersistsArchivesAndPublishes() {
	s.archive.On("Archive", mock.Anything, mock.AnythingOfType("*costing.CalculationRecord")).
		Return("reports/x.json", nil).Once()
	s.events.On("PublishCompleted", mock.Anything, mock.MatchedBy(func(rec *domainCosting.CalculationRecord) bool {
		return rec.ArchiveKey == "reports/x.json"
	})).Return(nil).Once()

	rec, err := s.svc.Calculate(context.Background(), usInput())

	s.Require().NoError(err)
	s.NotEmpty(rec.ID)
	s.Equal(domainCosting.StatusComplete, rec.Status)
	s.Equal([]domainCosting.Jurisdiction{domainCosting.JurisdictionUSPTO}, rec.Input.Jurisdictions)
	s.Equal(testNow, rec.CreatedAt)
	s.Greater(rec.Result.TotalCost, 0.0)
	s.Equal("reports/x.json", rec.ArchiveKey)

	stored, err := s.svc.GetCalculation(context.Background(), rec.ID)
	s.Require().NoError(err)
	s.Equal("reports/x.json", stored.ArchiveKey)
	s.Equal(rec.Result.TotalCost, stored.Result.TotalCost)

	s.archive.AssertExpectations(s.T())
	s.events.AssertExpectations(s.T())
	s.narrative.AssertNotCalled(s.T(), "Complete", mock.Anything, mock.Anything)
	s.Equal([]string{"full:success"}, s.metrics.calculations)
	s.Equal([]string{"calculation.completed"}, s.metrics.events)
	s.True(s.logger.HasMessage("info", "calculation complete"))
}

func (s *ServiceTestSuite) TestCalculate_ValidationFailsBeforeLoading() {
	_, err := s.svc.Calculate(context.Background(), domainCosting.CalculationInput{
		Jurisdictions: []domainCosting.Jurisdiction{"KIPO"},
		ClaimCount:    -1,
	})

	s.Require().Error(err)
	s.True(apperrors.IsValidation(err))
	s.Zero(s.store.Calls())
	s.Zero(s.results.Len())
	s.Equal([]string{"full:error"}, s.metrics.calculations)
}

func (s *ServiceTestSuite) TestCalculate_SideEffectFailuresAreSoft() {
	s.results.SaveErr = errors.New("db down")
	s.archive.On("Archive", mock.Anything, mock.Anything).Return("", errors.New("bucket gone"))
	s.events.On("PublishCompleted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	rec, err := s.svc.Calculate(context.Background(), usInput())

	s.Require().NoError(err)
	s.NotEmpty(rec.ID)
	s.Empty(rec.ArchiveKey)
	s.Equal([]string{"save", "archive"}, s.metrics.persistence)
	s.Equal([]string{"calculation.completed:failed"}, s.metrics.events)

	entry, ok := s.logger.Find("warn", "calculation not persisted")
	s.Require().True(ok)
	s.Equal(rec.ID, entry.Field("calculation_id"))
	s.True(s.logger.HasMessage("warn", "report not archived"))
	s.True(s.logger.HasMessage("warn", "completion event not published"))
}

func (s *ServiceTestSuite) TestCalculate_ArchiveKeyUpdateFailureIsSoft() {
	s.results.UpdateErr = errors.New("deadlock")
	s.archive.On("Archive", mock.Anything, mock.Anything).Return("reports/y.json", nil)
	s.events.On("PublishCompleted", mock.Anything, mock.Anything).Return(nil)

	rec, err := s.svc.Calculate(context.Background(), usInput())

	s.Require().NoError(err)
	s.Equal("reports/y.json", rec.ArchiveKey)
	s.Equal([]string{"update"}, s.metrics.persistence)
}

func (s *ServiceTestSuite) TestCalculate_NarrativeFallbackIsCounted() {
	s.narrative.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
	s.archive.On("Archive", mock.Anything, mock.Anything).Return("k", nil)
	s.events.On("PublishCompleted", mock.Anything, mock.Anything).Return(nil)
	in := usInput()
	in.BusinessDescription = "drone delivery"

	rec, err := s.svc.Calculate(context.Background(), in)

	s.Require().NoError(err)
	s.Equal([]string{"unavailable"}, s.metrics.fallbacks)
	s.Subset(rec.Result.Insights, domainCosting.FallbackInsights)
}

func (s *ServiceTestSuite) TestCalculate_CancelledWhileLoading() {
	s.store.Delay = 200 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.svc.Calculate(ctx, usInput())

	s.Equal(apperrors.ErrCodeReferenceLoadFailed, apperrors.GetCode(err))
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceTestSuite) TestPreview_NoNarrativeNoPersistence() {
	in := usInput()
	in.BusinessDescription = "saas"
	in.CompanySize = "startup"

	p, err := s.svc.Preview(context.Background(), in)

	s.Require().NoError(err)
	s.Greater(p.TotalCost, 0.0)
	s.Require().Len(p.PerJurisdiction, 1)
	s.Equal(domainCosting.JurisdictionUSPTO, p.PerJurisdiction[0].Jurisdiction)
	s.Contains(p.GenericInsight, "provisional")
	s.Equal(domainCosting.UpgradeTeaser, p.UpgradeTeaser)
	s.Zero(s.results.Len())
	s.narrative.AssertNotCalled(s.T(), "Complete", mock.Anything, mock.Anything)
	s.archive.AssertNotCalled(s.T(), "Archive", mock.Anything, mock.Anything)
	s.Equal([]string{"preview:success"}, s.metrics.calculations)
}

func (s *ServiceTestSuite) TestUpdateCalculation() {
	s.archive.On("Archive", mock.Anything, mock.Anything).Return("k", nil)
	s.events.On("PublishCompleted", mock.Anything, mock.Anything).Return(nil)
	rec, err := s.svc.Calculate(context.Background(), usInput())
	s.Require().NoError(err)
	ctx := context.Background()

	email := "founder@example.com"
	upgraded := domainCosting.StatusUpgraded
	got, err := s.svc.UpdateCalculation(ctx, rec.ID, domainCosting.CalculationPatch{Email: &email, Status: &upgraded})
	s.Require().NoError(err)
	s.Equal(email, got.Email)
	s.Equal(domainCosting.StatusUpgraded, got.Status)

	_, err = s.svc.UpdateCalculation(ctx, rec.ID, domainCosting.CalculationPatch{})
	s.True(apperrors.IsValidation(err))

	bogus := domainCosting.CalculationStatus("refunded")
	_, err = s.svc.UpdateCalculation(ctx, rec.ID, domainCosting.CalculationPatch{Status: &bogus})
	s.True(apperrors.IsValidation(err))

	_, err = s.svc.UpdateCalculation(ctx, "missing", domainCosting.CalculationPatch{Email: &email})
	s.True(apperrors.IsNotFound(err))

	_, err = s.svc.UpdateCalculation(ctx, "", domainCosting.CalculationPatch{Email: &email})
	s.Error(err)
}

func (s *ServiceTestSuite) TestGetCalculation_NotFound() {
	_, err := s.svc.GetCalculation(context.Background(), "nope")
	s.True(apperrors.IsNotFound(err))

	_, err = s.svc.GetCalculation(context.Background(), "")
	s.Error(err)
}

func (s *ServiceTestSuite) TestListFees() {
	fees, err := s.svc.ListFees(context.Background(), "us", "")

	s.Require().NoError(err)
	s.NotEmpty(fees)
	for _, f := range fees {
		s.Equal(domainCosting.JurisdictionUSPTO, f.Jurisdiction)
		s.Equal(domainCosting.IPTypePatent, f.IPType)
	}

	_, err = s.svc.ListFees(context.Background(), "KIPO", domainCosting.IPTypePatent)
	s.Equal(apperrors.ErrCodeJurisdictionUnsupported, apperrors.GetCode(err))
}

func (s *ServiceTestSuite) TestJurisdictions() {
	s.Len(s.svc.Jurisdictions(), 3)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestNewService_RequiresCache(t *testing.T) {
	_, err := NewService(ServiceConfig{}, Dependencies{})
	require.Error(t, err)
}

func TestService_WithoutResultStore(t *testing.T) {
	cache := NewReferenceCache(sources(defaultStore(t)), nil, ReferenceCacheOptions{Clock: newFakeClock()})
	svc, err := NewService(ServiceConfig{}, Dependencies{Cache: cache})
	require.NoError(t, err)

	rec, err := svc.Calculate(context.Background(), usInput())
	require.NoError(t, err)

	_, err = svc.GetCalculation(context.Background(), rec.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

//Personal.AI order the ending
