package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"offerwise_backend/internal/algorithms"
	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/services/dto"
	"offerwise_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// RunNotifier is told when a deep run finishes; the email package implements
// it. A nil notifier disables notices.
type RunNotifier interface {
	RunCompleted(studentID string, set *dto.RecommendationSet)
}

// RecommendationService orchestrates both generation modes over the program
// corpus. QuickMatch is synchronous; DeepSearch runs as an async staged
// pipeline observable through SearchProgress events.
type RecommendationService interface {
	GenerateQuick(ctx context.Context, studentID string, criteria *dto.MatchCriteria) (*dto.RecommendationSet, error)
	StartDeepSearch(studentID string, criteria *dto.MatchCriteria) (string, error)
	CancelRun(runID string) error
	RunSnapshot(runID string) (*dto.RunSnapshot, error)
	SubscribeRun(runID string) (<-chan dto.SearchProgress, func(), error)
	PruneFinishedRuns(olderThan time.Duration) int
}

type RecommendationConfig struct {
	QuickMatchLimit int
	CorpusBatchSize int
	StepDelay       time.Duration
}

type recommendationService struct {
	programRepo repositories.ProgramRepository
	versions    VersionService
	notifier    RunNotifier
	sinks       []ProgressSink
	cfg         RecommendationConfig

	mu   sync.RWMutex
	runs map[string]*searchRun
}

func NewRecommendationService(
	programRepo repositories.ProgramRepository,
	versions VersionService,
	notifier RunNotifier,
	cfg RecommendationConfig,
	sinks ...ProgressSink,
) RecommendationService {
	if cfg.QuickMatchLimit <= 0 {
		cfg.QuickMatchLimit = 24
	}
	if cfg.CorpusBatchSize <= 0 {
		cfg.CorpusBatchSize = 50
	}
	return &recommendationService{
		programRepo: programRepo,
		versions:    versions,
		notifier:    notifier,
		sinks:       sinks,
		cfg:         cfg,
		runs:        make(map[string]*searchRun),
	}
}

type searchRun struct {
	id        string
	studentID string
	criteria  *dto.MatchCriteria
	reporter  *progressReporter
	cancel    context.CancelFunc

	mu         sync.Mutex
	state      dto.RunState
	results    *dto.RecommendationSet
	finishedAt time.Time
}

func (r *searchRun) setState(state dto.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	if state != dto.RunStateRunning {
		r.finishedAt = time.Now()
	}
}

func (r *searchRun) currentState() dto.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stage percent windows: each stage owns a contiguous sub-range of 0-100.
var stageWindows = map[models.SearchStage][2]int{
	models.StageParsing:        {0, 4},
	models.StageLoading:        {4, 22},
	models.StageInitialFilter:  {22, 38},
	models.StageConditionMatch: {38, 52},
	models.StageDeepAnalysis:   {52, 72},
	models.StageScoring:        {72, 82},
	models.StageCaseComparison: {82, 92},
	models.StageSorting:        {92, 100},
}

// stagePercent interpolates inside a stage window. done/total of 0 pins the
// start of the window.
func stagePercent(stage models.SearchStage, done, total int) int {
	window := stageWindows[stage]
	if total <= 0 {
		return window[0]
	}
	if done > total {
		done = total
	}
	return window[0] + (window[1]-window[0])*done/total
}

// ---------------------------------
// QuickMatch
// ---------------------------------

func (s *recommendationService) GenerateQuick(ctx context.Context, studentID string, criteria *dto.MatchCriteria) (*dto.RecommendationSet, error) {
	if err := checkGeneratePrecondition(criteria); err != nil {
		return nil, err
	}
	criteria = criteria.Clone()

	corpus, _, err := s.loadCorpus(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "recommendation", "Failed to load program corpus", 500)
	}

	var results []dto.RecommendationResult
	for i := range corpus {
		program := &corpus[i]
		if !passesHardFilter(program, criteria) {
			continue
		}
		results = append(results, scoreProgram(program, criteria))
	}

	algorithms.AssignTiers(results, algorithms.TierPolicy{
		Distribution: criteria.Distribution,
		Risk:         criteria.Risk,
	})
	if len(results) > s.cfg.QuickMatchLimit {
		results = results[:s.cfg.QuickMatchLimit]
	}
	grouped, counts := algorithms.GroupByTier(results)

	set := &dto.RecommendationSet{
		RunID:     uuid.NewString(),
		StudentID: studentID,
		Mode:      models.SearchModeQuick,
		Results:   grouped,
		Counts:    counts,
	}
	s.archiveVersion(set, criteria)
	logger.RunLog(set.RunID, studentID, "quick_match_completed", "results", len(grouped))
	return set, nil
}

// ---------------------------------
// DeepSearch
// ---------------------------------

func (s *recommendationService) StartDeepSearch(studentID string, criteria *dto.MatchCriteria) (string, error) {
	if err := checkGeneratePrecondition(criteria); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &searchRun{
		id:        uuid.NewString(),
		studentID: studentID,
		criteria:  criteria.Clone(),
		cancel:    cancel,
		state:     dto.RunStateRunning,
	}
	run.reporter = newProgressReporter(run.id, s.sinks...)

	s.mu.Lock()
	s.runs[run.id] = run
	s.mu.Unlock()

	logger.RunLog(run.id, studentID, "deep_search_started")
	go s.runDeepSearch(ctx, run)
	return run.id, nil
}

func (s *recommendationService) CancelRun(runID string) error {
	run, ok := s.getRun(runID)
	if !ok {
		return apperrors.ErrRunNotFound
	}

	run.mu.Lock()
	if run.state != dto.RunStateRunning {
		run.mu.Unlock()
		return apperrors.ErrRunFinished
	}
	run.state = dto.RunStateCancelled
	run.finishedAt = time.Now()
	run.mu.Unlock()

	// Seal the reporter first so no event emitted after this point is
	// observable, then stop the pipeline goroutine.
	run.reporter.Close()
	run.cancel()
	logger.RunLog(runID, run.studentID, "deep_search_cancelled")
	return nil
}

func (s *recommendationService) RunSnapshot(runID string) (*dto.RunSnapshot, error) {
	run, ok := s.getRun(runID)
	if !ok {
		return nil, apperrors.ErrRunNotFound
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	snapshot := &dto.RunSnapshot{
		RunID:     run.id,
		StudentID: run.studentID,
		State:     run.state,
	}
	if latest, ok := run.reporter.Latest(); ok && run.state != dto.RunStateCancelled {
		snapshot.Progress = &latest
	}
	if run.state == dto.RunStateCompleted {
		snapshot.Results = run.results
	}
	return snapshot, nil
}

func (s *recommendationService) SubscribeRun(runID string) (<-chan dto.SearchProgress, func(), error) {
	run, ok := s.getRun(runID)
	if !ok {
		return nil, nil, apperrors.ErrRunNotFound
	}
	ch, unsubscribe := run.reporter.Subscribe()
	return ch, unsubscribe, nil
}

// PruneFinishedRuns drops terminal runs older than the retention window and
// reports how many were evicted. Called by the janitor worker.
func (s *recommendationService) PruneFinishedRuns(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, run := range s.runs {
		run.mu.Lock()
		expired := run.state != dto.RunStateRunning && run.finishedAt.Before(cutoff)
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
			pruned++
		}
	}
	return pruned
}

func (s *recommendationService) getRun(runID string) (*searchRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok
}

// runDeepSearch executes the 8 ordered stages. Stages never interleave and
// are never skipped; cancellation is checked at every suspension point.
func (s *recommendationService) runDeepSearch(ctx context.Context, run *searchRun) {
	criteria := run.criteria
	emit := run.reporter.Emit

	// Stage 1: parsing
	emit(dto.SearchProgress{
		Stage:   models.StageParsing,
		Percent: stagePercent(models.StageParsing, 0, 1),
		Message: "正在解析筛选条件",
		Details: []string{fmt.Sprintf("目标国家: %d, 目标专业: %d", len(criteria.TargetCountries), len(criteria.TargetPrograms))},
	})
	criteria.Weights = algorithms.SanitizeWeights(criteria.Weights)
	if len(criteria.Weights) == 0 {
		criteria.Weights = algorithms.DefaultWeights
	}
	if s.pause(ctx) != nil {
		return
	}
	emit(dto.SearchProgress{
		Stage:   models.StageParsing,
		Percent: stagePercent(models.StageParsing, 1, 1),
		Message: "筛选条件解析完成",
	})

	// Stage 2: loading
	corpus, total, err := s.loadCorpusStaged(ctx, run)
	if err != nil {
		return // cancelled mid-load
	}

	// Stage 3: initialFilter
	filtered, ok := s.stageInitialFilter(ctx, run, corpus)
	if !ok {
		return
	}

	// Stage 4: conditionMatch
	matched, ok := s.stageConditionMatch(ctx, run, filtered)
	if !ok {
		return
	}

	// Stage 5: deepAnalysis
	analyzed, ok := s.stageDeepAnalysis(ctx, run, matched)
	if !ok {
		return
	}

	// Stage 6: scoring
	results, ok := s.stageScoring(ctx, run, matched, analyzed)
	if !ok {
		return
	}

	// Stage 7: caseComparison
	if !s.stageCaseComparison(ctx, run, matched, results) {
		return
	}

	// Stage 8: sorting
	emit(dto.SearchProgress{
		Stage:   models.StageSorting,
		Percent: stagePercent(models.StageSorting, 0, 1),
		Message: "正在生成最终排序与梯队划分",
	})
	algorithms.AssignTiers(results, algorithms.TierPolicy{
		Distribution: criteria.Distribution,
		Risk:         criteria.Risk,
	})
	grouped, counts := algorithms.GroupByTier(results)
	if s.pause(ctx) != nil {
		return
	}

	set := &dto.RecommendationSet{
		RunID:     run.id,
		StudentID: run.studentID,
		Mode:      models.SearchModeDeep,
		Results:   grouped,
		Counts:    counts,
	}
	s.archiveVersion(set, criteria)

	// Terminal event precedes result delivery.
	emit(dto.SearchProgress{
		Stage:      models.StageCompleted,
		Percent:    100,
		TotalCount: total,
		Message:    fmt.Sprintf("推荐完成，共生成 %d 条结果", len(grouped)),
	})

	run.mu.Lock()
	if run.state == dto.RunStateCancelled {
		run.mu.Unlock()
		return
	}
	run.state = dto.RunStateCompleted
	run.results = set
	run.finishedAt = time.Now()
	run.mu.Unlock()

	run.reporter.Close()
	logger.RunLog(run.id, run.studentID, "deep_search_completed", "results", len(grouped))

	if s.notifier != nil {
		go s.notifier.RunCompleted(run.studentID, set)
	}
}

func (s *recommendationService) loadCorpusStaged(ctx context.Context, run *searchRun) ([]models.Program, int, error) {
	total64, err := s.programRepo.CountPrograms(ctx)
	if err != nil {
		total64 = 0
	}
	total := int(total64)

	run.reporter.Emit(dto.SearchProgress{
		Stage:      models.StageLoading,
		Percent:    stagePercent(models.StageLoading, 0, total),
		TotalCount: total,
		Message:    "正在加载项目库",
	})

	var corpus []models.Program
	for offset := 0; ; offset += s.cfg.CorpusBatchSize {
		if s.pause(ctx) != nil {
			return nil, 0, ctx.Err()
		}
		batch, err := s.programRepo.ListPrograms(ctx, offset, s.cfg.CorpusBatchSize)
		if err != nil || len(batch) == 0 {
			break
		}
		corpus = append(corpus, batch...)
		run.reporter.Emit(dto.SearchProgress{
			Stage:        models.StageLoading,
			Percent:      stagePercent(models.StageLoading, len(corpus), total),
			ScannedCount: len(corpus),
			TotalCount:   total,
			Message:      fmt.Sprintf("已扫描 %d/%d 个项目", len(corpus), total),
		})
		if len(batch) < s.cfg.CorpusBatchSize {
			break
		}
	}

	run.reporter.Emit(dto.SearchProgress{
		Stage:        models.StageLoading,
		Percent:      stageWindows[models.StageLoading][1],
		ScannedCount: len(corpus),
		TotalCount:   total,
		Message:      "项目库加载完成",
	})
	return corpus, total, nil
}

func (s *recommendationService) stageInitialFilter(ctx context.Context, run *searchRun, corpus []models.Program) ([]models.Program, bool) {
	criteria := run.criteria
	var filtered []models.Program

	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageInitialFilter,
		Percent: stagePercent(models.StageInitialFilter, 0, len(corpus)),
		Message: "正在按国家与专业方向初筛",
	})

	for i := range corpus {
		if passesHardFilter(&corpus[i], criteria) {
			filtered = append(filtered, corpus[i])
		}
		if (i+1)%s.cfg.CorpusBatchSize == 0 {
			if s.pause(ctx) != nil {
				return nil, false
			}
			run.reporter.Emit(dto.SearchProgress{
				Stage:         models.StageInitialFilter,
				Percent:       stagePercent(models.StageInitialFilter, i+1, len(corpus)),
				FilteredCount: len(filtered),
				Message:       fmt.Sprintf("初筛通过 %d 个项目", len(filtered)),
			})
		}
	}
	if s.pause(ctx) != nil {
		return nil, false
	}
	run.reporter.Emit(dto.SearchProgress{
		Stage:         models.StageInitialFilter,
		Percent:       stageWindows[models.StageInitialFilter][1],
		FilteredCount: len(filtered),
		Message:       fmt.Sprintf("初筛完成，保留 %d 个项目", len(filtered)),
	})
	return filtered, true
}

func (s *recommendationService) stageConditionMatch(ctx context.Context, run *searchRun, filtered []models.Program) ([]models.Program, bool) {
	criteria := run.criteria
	var matched []models.Program
	var details []string

	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageConditionMatch,
		Percent: stagePercent(models.StageConditionMatch, 0, len(filtered)),
		Message: "正在匹配 GPA、语言与预算条件",
	})

	for i := range filtered {
		program := &filtered[i]
		if passesSoftRules(program, criteria) {
			matched = append(matched, filtered[i])
		} else if len(details) < 5 {
			details = append(details, fmt.Sprintf("%s %s 未达到录取条件", program.School, program.Name))
		}
		if (i+1)%s.cfg.CorpusBatchSize == 0 && s.pause(ctx) != nil {
			return nil, false
		}
	}
	if s.pause(ctx) != nil {
		return nil, false
	}
	run.reporter.Emit(dto.SearchProgress{
		Stage:        models.StageConditionMatch,
		Percent:      stageWindows[models.StageConditionMatch][1],
		MatchedCount: len(matched),
		Message:      fmt.Sprintf("条件匹配完成，%d 个项目符合", len(matched)),
		Details:      details,
	})
	return matched, true
}

func (s *recommendationService) stageDeepAnalysis(ctx context.Context, run *searchRun, matched []models.Program) ([]dto.DimensionScores, bool) {
	criteria := run.criteria
	analyzed := make([]dto.DimensionScores, 0, len(matched))

	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageDeepAnalysis,
		Percent: stagePercent(models.StageDeepAnalysis, 0, len(matched)),
		Message: "正在进行多维度深度分析",
	})

	for i := range matched {
		analyzed = append(analyzed, algorithms.DimensionScores(&matched[i], criteria))
		if (i+1)%10 == 0 {
			if s.pause(ctx) != nil {
				return nil, false
			}
			run.reporter.Emit(dto.SearchProgress{
				Stage:         models.StageDeepAnalysis,
				Percent:       stagePercent(models.StageDeepAnalysis, i+1, len(matched)),
				AnalyzedCount: i + 1,
				Message:       fmt.Sprintf("已分析 %d/%d 个项目", i+1, len(matched)),
			})
		}
	}
	if s.pause(ctx) != nil {
		return nil, false
	}
	run.reporter.Emit(dto.SearchProgress{
		Stage:         models.StageDeepAnalysis,
		Percent:       stageWindows[models.StageDeepAnalysis][1],
		AnalyzedCount: len(matched),
		Message:       "深度分析完成",
	})
	return analyzed, true
}

func (s *recommendationService) stageScoring(ctx context.Context, run *searchRun, matched []models.Program, analyzed []dto.DimensionScores) ([]dto.RecommendationResult, bool) {
	criteria := run.criteria
	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageScoring,
		Percent: stagePercent(models.StageScoring, 0, 1),
		Message: "正在计算综合匹配分数",
	})

	results := make([]dto.RecommendationResult, 0, len(matched))
	for i := range matched {
		program := &matched[i]
		composite := algorithms.Composite(analyzed[i], criteria.Weights)
		results = append(results, dto.RecommendationResult{
			ID:           program.ID,
			School:       program.School,
			Program:      program.Name,
			Country:      program.Country,
			Score:        composite,
			Dimensions:   analyzed[i],
			MatchReason:  algorithms.MatchReason(analyzed[i]),
			Rationale:    algorithms.Rationale(program, analyzed[i], composite),
			Highlights:   program.Highlights,
			Requirements: program.Requirements,
		})
	}
	if s.pause(ctx) != nil {
		return nil, false
	}
	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageScoring,
		Percent: stageWindows[models.StageScoring][1],
		Message: fmt.Sprintf("评分完成，共 %d 个候选项目", len(results)),
	})
	return results, true
}

func (s *recommendationService) stageCaseComparison(ctx context.Context, run *searchRun, matched []models.Program, results []dto.RecommendationResult) bool {
	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageCaseComparison,
		Percent: stagePercent(models.StageCaseComparison, 0, 1),
		Message: "正在比对历史案例",
	})

	byKey := make(map[string]*models.Program, len(matched))
	for i := range matched {
		byKey[matched[i].School+"|"+matched[i].Name] = &matched[i]
	}
	attached := 0
	for i := range results {
		program, ok := byKey[results[i].School+"|"+results[i].Program]
		if !ok {
			continue
		}
		cases := program.GetAdmitCases()
		if len(cases) == 0 {
			continue // optional enrichment, absence is not an error
		}
		if len(cases) > 2 {
			cases = cases[:2]
		}
		results[i].SimilarCases = cases
		attached++
	}
	if s.pause(ctx) != nil {
		return false
	}
	run.reporter.Emit(dto.SearchProgress{
		Stage:   models.StageCaseComparison,
		Percent: stageWindows[models.StageCaseComparison][1],
		Message: fmt.Sprintf("案例比对完成，%d 个项目附带相似案例", attached),
	})
	return true
}

// ---------------------------------
// Shared helpers
// ---------------------------------

func checkGeneratePrecondition(criteria *dto.MatchCriteria) error {
	if criteria == nil || len(criteria.TargetCountries) == 0 || len(criteria.TargetPrograms) == 0 {
		return apperrors.ErrGenerateBlocked
	}
	return nil
}

func (s *recommendationService) loadCorpus(ctx context.Context, _ *searchRun) ([]models.Program, int, error) {
	var corpus []models.Program
	for offset := 0; ; offset += s.cfg.CorpusBatchSize {
		batch, err := s.programRepo.ListPrograms(ctx, offset, s.cfg.CorpusBatchSize)
		if err != nil {
			return nil, 0, err
		}
		corpus = append(corpus, batch...)
		if len(batch) < s.cfg.CorpusBatchSize {
			break
		}
	}
	return corpus, len(corpus), nil
}

func passesHardFilter(p *models.Program, c *dto.MatchCriteria) bool {
	return containsFold(c.TargetCountries, p.Country) &&
		containsFold(c.TargetPrograms, p.Category)
}

// passesSoftRules applies the eligibility thresholds of conditionMatch.
// Slight deficits are tolerated; hopeless gaps are filtered out.
func passesSoftRules(p *models.Program, c *dto.MatchCriteria) bool {
	// GPA 0 means nothing parsable was on the profile; unknown must not
	// hard-fail every program that states a minimum.
	if c.GPA > 0 && p.MinGPA > 0 && c.GPAOn4()+0.2 < p.MinGPA {
		return false
	}
	if c.Language.TOEFL != nil && p.MinTOEFL > 0 && *c.Language.TOEFL < p.MinTOEFL-8 {
		return false
	}
	if c.Language.IELTS != nil && p.MinIELTS > 0 && *c.Language.IELTS < p.MinIELTS-1.0 {
		return false
	}
	if c.Budget.Max > 0 && p.AnnualCost > c.Budget.Max*1.3 {
		return false
	}
	return true
}

func scoreProgram(p *models.Program, c *dto.MatchCriteria) dto.RecommendationResult {
	weights := c.Weights
	if len(weights) == 0 {
		weights = algorithms.DefaultWeights
	}
	scores := algorithms.DimensionScores(p, c)
	composite := algorithms.Composite(scores, weights)
	return dto.RecommendationResult{
		ID:           p.ID,
		School:       p.School,
		Program:      p.Name,
		Country:      p.Country,
		Score:        composite,
		Dimensions:   scores,
		MatchReason:  algorithms.MatchReason(scores),
		Rationale:    algorithms.Rationale(p, scores, composite),
		Highlights:   p.Highlights,
		Requirements: p.Requirements,
	}
}

func (s *recommendationService) archiveVersion(set *dto.RecommendationSet, criteria *dto.MatchCriteria) {
	if s.versions == nil {
		return
	}
	version, err := s.versions.AppendFromRun(set, criteria)
	if err != nil {
		logger.WithError(err).Warn("failed to archive recommendation version", "run_id", set.RunID)
		return
	}
	set.VersionID = version.ID
}

// pause is the pipeline's cooperative suspension point: it yields for the
// configured step delay and reports cancellation.
func (s *recommendationService) pause(ctx context.Context) error {
	if s.cfg.StepDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.StepDelay):
		return nil
	}
}

func containsFold(set []string, value string) bool {
	for _, v := range set {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
