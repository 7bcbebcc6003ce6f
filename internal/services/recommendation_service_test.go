package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"
	"offerwise_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProgramRepo struct {
	programs []models.Program
}

func (s *stubProgramRepo) CountPrograms(ctx context.Context) (int64, error) {
	return int64(len(s.programs)), nil
}

func (s *stubProgramRepo) ListPrograms(ctx context.Context, offset, limit int) ([]models.Program, error) {
	if offset >= len(s.programs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.programs) {
		end = len(s.programs)
	}
	return s.programs[offset:end], nil
}

type stubVersionService struct {
	mu       sync.Mutex
	appended []*dto.RecommendationSet
}

func (s *stubVersionService) AppendFromRun(set *dto.RecommendationSet, criteria *dto.MatchCriteria) (*models.RecommendationVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, set)
	return &models.RecommendationVersion{ID: "v-" + set.RunID, StudentID: set.StudentID}, nil
}

func (s *stubVersionService) ListForStudent(studentID string) ([]models.RecommendationVersion, error) {
	return nil, nil
}

func (s *stubVersionService) Adopt(versionID string) (*models.RecommendationVersion, error) {
	return nil, nil
}

func (s *stubVersionService) appendedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended)
}

// recordingSink captures every event of every run. Registered at service
// construction, so it observes events from the very first one.
type recordingSink struct {
	mu     sync.Mutex
	events []dto.SearchProgress
}

func (s *recordingSink) Publish(runID string, event dto.SearchProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) snapshot() []dto.SearchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.SearchProgress(nil), s.events...)
}

func testCorpus() []models.Program {
	return []models.Program{
		{ID: "p1", School: "CMU", Name: "MSCS", Category: "CS", Country: "美国", RankingTier: 1, ResearchIndex: 95, InternshipIndex: 90, MinGPA: 3.5, MinTOEFL: 100, AnnualCost: 58000},
		{ID: "p2", School: "UIUC", Name: "MCS", Category: "CS", Country: "美国", RankingTier: 2, ResearchIndex: 85, InternshipIndex: 80, MinGPA: 3.2, MinTOEFL: 96, AnnualCost: 42000},
		{ID: "p3", School: "NEU", Name: "MSCS Align", Category: "CS", Country: "美国", RankingTier: 4, ResearchIndex: 55, InternshipIndex: 85, MinGPA: 3.0, MinTOEFL: 90, AnnualCost: 52000},
		{ID: "p4", School: "NUS", Name: "MComp", Category: "CS", Country: "新加坡", RankingTier: 1, ResearchIndex: 90, InternshipIndex: 75, MinGPA: 3.4, MinTOEFL: 92, AnnualCost: 35000},
		{ID: "p5", School: "HKUST", Name: "MSc 金融", Category: "金融", Country: "中国香港", RankingTier: 2, ResearchIndex: 70, InternshipIndex: 88, MinGPA: 3.3, MinTOEFL: 94, AnnualCost: 40000},
	}
}

func testCriteria() *dto.MatchCriteria {
	toefl := 105
	return &dto.MatchCriteria{
		TargetCountries: []string{"美国"},
		TargetPrograms:  []string{"CS"},
		GPA:             3.7,
		GPAScale:        "4.0",
		Language:        dto.LanguageScores{TOEFL: &toefl},
		Budget:          dto.BudgetRange{Max: 60000},
	}
}

func newTestService(programs []models.Program, delay time.Duration, sinks ...ProgressSink) (*recommendationService, *stubVersionService) {
	versions := &stubVersionService{}
	svc := NewRecommendationService(
		&stubProgramRepo{programs: programs},
		versions,
		nil,
		RecommendationConfig{QuickMatchLimit: 24, CorpusBatchSize: 2, StepDelay: delay},
		sinks...,
	)
	return svc.(*recommendationService), versions
}

func waitForState(t *testing.T, svc RecommendationService, runID string, want dto.RunState) *dto.RunSnapshot {
	t.Helper()
	var snapshot *dto.RunSnapshot
	require.Eventually(t, func() bool {
		var err error
		snapshot, err = svc.RunSnapshot(runID)
		return err == nil && snapshot.State == want
	}, 10*time.Second, 5*time.Millisecond)
	return snapshot
}

func TestDeepSearch_StageOrderAndMonotonicPercent(t *testing.T) {
	sink := &recordingSink{}
	svc, versions := newTestService(testCorpus(), time.Millisecond, sink)

	runID, err := svc.StartDeepSearch("stu-1", testCriteria())
	require.NoError(t, err)

	snapshot := waitForState(t, svc, runID, dto.RunStateCompleted)
	events := sink.snapshot()
	require.NotEmpty(t, events)

	// Stages appear in pipeline order, none skipped, completed is last.
	wantOrder := append(append([]models.SearchStage{}, models.DeepSearchStages...), models.StageCompleted)
	var seen []models.SearchStage
	for _, event := range events {
		if len(seen) == 0 || seen[len(seen)-1] != event.Stage {
			seen = append(seen, event.Stage)
		}
	}
	assert.Equal(t, wantOrder, seen)

	// Percent never decreases and the terminal event reads 100.
	prev := 0
	for _, event := range events {
		assert.GreaterOrEqual(t, event.Percent, prev, "stage %s", event.Stage)
		prev = event.Percent
	}
	last := events[len(events)-1]
	assert.Equal(t, models.StageCompleted, last.Stage)
	assert.Equal(t, 100, last.Percent)

	require.NotNil(t, snapshot.Results)
	assert.Len(t, snapshot.Results.Results, 3) // p1, p2, p3 match country+category
	assert.Equal(t, 1, versions.appendedCount())
}

func TestDeepSearch_CountsNeverDecrease(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(testCorpus(), time.Millisecond, sink)

	runID, err := svc.StartDeepSearch("stu-1", testCriteria())
	require.NoError(t, err)
	waitForState(t, svc, runID, dto.RunStateCompleted)

	var prev dto.SearchProgress
	for _, event := range sink.snapshot() {
		assert.GreaterOrEqual(t, event.ScannedCount, prev.ScannedCount)
		assert.GreaterOrEqual(t, event.FilteredCount, prev.FilteredCount)
		assert.GreaterOrEqual(t, event.MatchedCount, prev.MatchedCount)
		assert.GreaterOrEqual(t, event.AnalyzedCount, prev.AnalyzedCount)
		prev = event
	}
}

func TestDeepSearch_CancellationStopsPipeline(t *testing.T) {
	sink := &recordingSink{}
	svc, versions := newTestService(testCorpus(), 80*time.Millisecond, sink)

	runID, err := svc.StartDeepSearch("stu-1", testCriteria())
	require.NoError(t, err)
	ch, unsubscribe, err := svc.SubscribeRun(runID)
	require.NoError(t, err)
	defer unsubscribe()

	// Wait for the pipeline to reach initialFilter, then cancel during the
	// pause that follows its opening event.
	cancelled := false
	timeout := time.After(10 * time.Second)
	for !cancelled {
		select {
		case event, ok := <-ch:
			require.True(t, ok, "run finished before cancellation")
			if event.Stage == models.StageInitialFilter {
				require.NoError(t, svc.CancelRun(runID))
				cancelled = true
			}
		case <-timeout:
			t.Fatal("never reached initialFilter")
		}
	}
	for range ch {
		// Drain until the reporter closes the channel.
	}

	// Give the pipeline goroutine time to unwind, then check it went silent.
	time.Sleep(200 * time.Millisecond)
	for _, event := range sink.snapshot() {
		assert.NotContains(t, []models.SearchStage{
			models.StageConditionMatch,
			models.StageDeepAnalysis,
			models.StageScoring,
			models.StageCaseComparison,
			models.StageSorting,
			models.StageCompleted,
		}, event.Stage)
	}

	snapshot, err := svc.RunSnapshot(runID)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStateCancelled, snapshot.State)
	assert.Nil(t, snapshot.Results)
	assert.Equal(t, 0, versions.appendedCount())

	// A finished run cannot be cancelled twice.
	assert.ErrorIs(t, svc.CancelRun(runID), apperrors.ErrRunFinished)
}

func TestDeepSearch_EmptyCorpusCompletesNormally(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(nil, time.Millisecond, sink)

	runID, err := svc.StartDeepSearch("stu-1", testCriteria())
	require.NoError(t, err)
	snapshot := waitForState(t, svc, runID, dto.RunStateCompleted)

	events := sink.snapshot()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, models.StageCompleted, last.Stage)
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, 0, last.MatchedCount)

	require.NotNil(t, snapshot.Results)
	assert.Empty(t, snapshot.Results.Results)
	assert.Equal(t, dto.TierCounts{}, snapshot.Results.Counts)
}

func TestGenerateQuick_FiltersAndTiers(t *testing.T) {
	svc, versions := newTestService(testCorpus(), 0)

	set, err := svc.GenerateQuick(context.Background(), "stu-1", testCriteria())
	require.NoError(t, err)

	require.Len(t, set.Results, 3)
	assert.Equal(t, models.SearchModeQuick, set.Mode)
	for _, result := range set.Results {
		assert.Equal(t, "美国", result.Country)
		assert.True(t, models.IsValidTier(result.Tier), "tier %q", result.Tier)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 100.0)
		assert.NotEmpty(t, result.MatchReason)
		assert.NotEmpty(t, result.Rationale)
	}
	assert.Equal(t, len(set.Results), set.Counts.Reach+set.Counts.Match+set.Counts.Safety)

	// Grouped Reach -> Match -> Safety, composite descending inside a tier.
	tierRank := map[models.Tier]int{models.TierReach: 0, models.TierMatch: 1, models.TierSafety: 2}
	for i := 1; i < len(set.Results); i++ {
		prev, cur := set.Results[i-1], set.Results[i]
		assert.LessOrEqual(t, tierRank[prev.Tier], tierRank[cur.Tier])
		if prev.Tier == cur.Tier {
			assert.GreaterOrEqual(t, prev.Score, cur.Score)
		}
	}

	assert.Equal(t, 1, versions.appendedCount())
	assert.NotEmpty(t, set.VersionID)
}

func TestGenerate_RequiresCountryAndProgram(t *testing.T) {
	svc, _ := newTestService(testCorpus(), 0)

	criteria := testCriteria()
	criteria.TargetCountries = nil
	_, err := svc.GenerateQuick(context.Background(), "stu-1", criteria)
	assert.ErrorIs(t, err, apperrors.ErrGenerateBlocked)

	criteria = testCriteria()
	criteria.TargetPrograms = nil
	_, err = svc.StartDeepSearch("stu-1", criteria)
	assert.ErrorIs(t, err, apperrors.ErrGenerateBlocked)
}

func TestRunRegistry_UnknownAndPrunedRuns(t *testing.T) {
	svc, _ := newTestService(testCorpus(), time.Millisecond)

	_, err := svc.RunSnapshot("no-such-run")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
	assert.ErrorIs(t, svc.CancelRun("no-such-run"), apperrors.ErrRunNotFound)

	runID, err := svc.StartDeepSearch("stu-1", testCriteria())
	require.NoError(t, err)
	waitForState(t, svc, runID, dto.RunStateCompleted)

	assert.Equal(t, 1, svc.PruneFinishedRuns(0))
	_, err = svc.RunSnapshot(runID)
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestSoftRules_UnknownGPAIsNeutral(t *testing.T) {
	program := &models.Program{MinGPA: 3.5}

	criteria := testCriteria()
	assert.True(t, passesSoftRules(program, criteria))

	criteria = testCriteria()
	criteria.GPA = 2.8
	assert.False(t, passesSoftRules(program, criteria))

	// No parsable GPA on the profile leaves GPA at zero; that is unknown,
	// not failing, so the minimum must not filter the program out.
	criteria = testCriteria()
	criteria.GPA = 0
	criteria.GPAScale = ""
	assert.True(t, passesSoftRules(program, criteria))
}

func TestDeepSearch_UnknownGPAStillProducesResults(t *testing.T) {
	criteria := testCriteria()
	criteria.GPA = 0
	criteria.GPAScale = ""

	svc, _ := newTestService(testCorpus(), time.Millisecond)
	runID, err := svc.StartDeepSearch("stu-1", criteria)
	require.NoError(t, err)

	snapshot := waitForState(t, svc, runID, dto.RunStateCompleted)
	require.NotNil(t, snapshot.Results)
	assert.NotEmpty(t, snapshot.Results.Results)
}
