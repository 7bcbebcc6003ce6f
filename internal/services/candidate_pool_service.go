package services

import (
	"errors"
	"strings"
	"sync"

	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/services/dto"
	"offerwise_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// CandidatePoolService curates each student's candidate pool. Writes to one
// student's pool are serialized through a per-student lock, so concurrent
// accepts and transitions never interleave their read-check-write sequences.
type CandidatePoolService interface {
	AcceptResults(req *dto.AcceptResultsRequest) ([]models.CandidateProgram, int, error)
	AddManual(req *dto.ManualCandidateRequest) (*models.CandidateProgram, error)
	Transition(id string, req *dto.TransitionRequest) (*models.CandidateProgram, error)
	Update(entry *models.CandidateProgram) (*models.CandidateProgram, error)
	Filter(studentID string, query *dto.PoolQuery) ([]models.CandidateProgram, error)
	Stats(studentID string) (*dto.PoolStats, error)
}

type candidatePoolService struct {
	repo  repositories.CandidateRepository
	locks sync.Map // studentID -> *sync.Mutex
}

func NewCandidatePoolService(repo repositories.CandidateRepository) CandidatePoolService {
	return &candidatePoolService{repo: repo}
}

func (s *candidatePoolService) studentLock(studentID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(studentID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// AcceptResults copies the given recommendation results into the pool with
// source AI推荐, keeping each result's tier as the entry's stage (匹配 when
// the tier is unrecognized). Results whose school+program pair already
// exists are skipped silently; the skip count is returned alongside.
func (s *candidatePoolService) AcceptResults(req *dto.AcceptResultsRequest) ([]models.CandidateProgram, int, error) {
	lock := s.studentLock(req.StudentID)
	lock.Lock()
	defer lock.Unlock()

	var added []models.CandidateProgram
	skipped := 0
	for _, result := range req.Results {
		exists, err := s.repo.ExistsSchoolProgram(req.StudentID, result.School, result.Program)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to check candidate pool", 500)
		}
		if exists {
			skipped++
			continue
		}
		score := result.Score
		stage := models.CandidateStage(result.Tier)
		if !models.IsValidCandidateStage(stage) {
			stage = models.CandidateStageMatch
		}
		entry := models.CandidateProgram{
			ID:          uuid.NewString(),
			StudentID:   req.StudentID,
			School:      result.School,
			Program:     result.Program,
			Source:      models.CandidateSourceAI,
			Stage:       stage,
			Status:      models.CandidateStatusPending,
			MatchScore:  &score,
			MatchReason: result.MatchReason,
			Rationale:   result.Rationale,
		}
		if err := s.repo.Create(&entry); err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to add candidate", 500)
		}
		added = append(added, entry)
	}

	logger.Info("accepted recommendation results",
		"student_id", req.StudentID,
		"added", len(added),
		"skipped", skipped,
	)
	return added, skipped, nil
}

func (s *candidatePoolService) AddManual(req *dto.ManualCandidateRequest) (*models.CandidateProgram, error) {
	lock := s.studentLock(req.StudentID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.repo.ExistsSchoolProgram(req.StudentID, req.School, req.Program)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to check candidate pool", 500)
	}
	if exists {
		return nil, apperrors.ErrConflict(nil, "candidate", "This school and program is already in the pool")
	}

	status := req.Status
	if status == "" {
		status = models.CandidateStatusPending
	}
	entry := &models.CandidateProgram{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		School:    req.School,
		Program:   req.Program,
		Source:    models.CandidateSourceManual,
		Stage:     req.Stage,
		Status:    status,
		Notes:     req.Notes,
		Owner:     req.Owner,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to add candidate", 500)
	}
	return entry, nil
}

// Transition updates only the stage and/or status named in the request.
func (s *candidatePoolService) Transition(id string, req *dto.TransitionRequest) (*models.CandidateProgram, error) {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to load candidate", 500)
	}

	lock := s.studentLock(entry.StudentID)
	lock.Lock()
	defer lock.Unlock()

	if req.Stage != nil {
		entry.Stage = *req.Stage
	}
	if req.Status != nil {
		entry.Status = *req.Status
	}
	if err := s.repo.Save(entry); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to update candidate", 500)
	}
	return entry, nil
}

// Update overwrites the editable fields of an existing entry. Identity and
// provenance fields (student, source, match score) are kept from the stored
// record.
func (s *candidatePoolService) Update(entry *models.CandidateProgram) (*models.CandidateProgram, error) {
	stored, err := s.repo.GetByID(entry.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to load candidate", 500)
	}

	lock := s.studentLock(stored.StudentID)
	lock.Lock()
	defer lock.Unlock()

	stored.School = entry.School
	stored.Program = entry.Program
	stored.Stage = entry.Stage
	stored.Status = entry.Status
	stored.Notes = entry.Notes
	stored.Owner = entry.Owner
	if err := s.repo.Save(stored); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to update candidate", 500)
	}
	return stored, nil
}

// Filter combines all provided query fields with AND; the text query matches
// school, program, and notes case-insensitively.
func (s *candidatePoolService) Filter(studentID string, query *dto.PoolQuery) ([]models.CandidateProgram, error) {
	entries, err := s.repo.ListByStudent(studentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to list candidates", 500)
	}
	if query == nil {
		return entries, nil
	}

	text := strings.ToLower(strings.TrimSpace(query.Text))
	filtered := make([]models.CandidateProgram, 0, len(entries))
	for _, entry := range entries {
		if query.Stage != "" && entry.Stage != query.Stage {
			continue
		}
		if query.Status != "" && entry.Status != query.Status {
			continue
		}
		if query.Source != "" && entry.Source != query.Source {
			continue
		}
		if text != "" && !matchesText(&entry, text) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

func (s *candidatePoolService) Stats(studentID string) (*dto.PoolStats, error) {
	entries, err := s.repo.ListByStudent(studentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "candidate", "Failed to list candidates", 500)
	}

	stats := &dto.PoolStats{
		Total:    len(entries),
		ByStage:  make(map[models.CandidateStage]int),
		ByStatus: make(map[models.CandidateStatus]int),
		BySource: make(map[models.CandidateSource]int),
	}
	for _, entry := range entries {
		stats.ByStage[entry.Stage]++
		stats.ByStatus[entry.Status]++
		stats.BySource[entry.Source]++
	}
	return stats, nil
}

func matchesText(entry *models.CandidateProgram, loweredText string) bool {
	return strings.Contains(strings.ToLower(entry.School), loweredText) ||
		strings.Contains(strings.ToLower(entry.Program), loweredText) ||
		strings.Contains(strings.ToLower(entry.Notes), loweredText)
}
