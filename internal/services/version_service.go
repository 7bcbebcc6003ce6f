package services

import (
	"errors"
	"fmt"
	"strings"

	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/services/dto"
	"offerwise_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// AdoptNotifier is told when a version becomes the adopted plan; the email
// package implements it. A nil notifier disables notices.
type AdoptNotifier interface {
	VersionAdopted(studentID string, version *models.RecommendationVersion)
}

// VersionService maintains the append-only recommendation history. Versions
// are never edited after creation; the only mutable bit is the adopted flag,
// and at most one version per student carries it.
type VersionService interface {
	AppendFromRun(set *dto.RecommendationSet, criteria *dto.MatchCriteria) (*models.RecommendationVersion, error)
	ListForStudent(studentID string) ([]models.RecommendationVersion, error)
	Adopt(versionID string) (*models.RecommendationVersion, error)
}

type versionService struct {
	repo     repositories.VersionRepository
	notifier AdoptNotifier
}

func NewVersionService(repo repositories.VersionRepository, notifier AdoptNotifier) VersionService {
	return &versionService{repo: repo, notifier: notifier}
}

func (s *versionService) AppendFromRun(set *dto.RecommendationSet, criteria *dto.MatchCriteria) (*models.RecommendationVersion, error) {
	version := &models.RecommendationVersion{
		ID:          uuid.NewString(),
		StudentID:   set.StudentID,
		Mode:        set.Mode,
		Summary:     buildSummary(set, criteria),
		ResultCount: len(set.Results),
		ReachCount:  set.Counts.Reach,
		MatchCount:  set.Counts.Match,
		SafetyCount: set.Counts.Safety,
	}
	if err := s.repo.Append(version); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "version", "Failed to archive recommendation version", 500)
	}
	logger.RunLog(set.RunID, set.StudentID, "version_appended", "version_id", version.ID)
	return version, nil
}

func (s *versionService) ListForStudent(studentID string) ([]models.RecommendationVersion, error) {
	versions, err := s.repo.ListByStudent(studentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "version", "Failed to list recommendation versions", 500)
	}
	return versions, nil
}

func (s *versionService) Adopt(versionID string) (*models.RecommendationVersion, error) {
	version, err := s.repo.Adopt(versionID)
	if err != nil {
		if errors.Is(err, repositories.ErrVersionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "version", "Failed to adopt recommendation version", 500)
	}
	if s.notifier != nil {
		go s.notifier.VersionAdopted(version.StudentID, version)
	}
	return version, nil
}

// buildSummary renders the one-line history label, e.g.
// "深度搜索 · 美国/英国 · 24 条结果".
func buildSummary(set *dto.RecommendationSet, criteria *dto.MatchCriteria) string {
	mode := "快速匹配"
	if set.Mode == models.SearchModeDeep {
		mode = "深度搜索"
	}
	countries := "未指定国家"
	if criteria != nil && len(criteria.TargetCountries) > 0 {
		countries = strings.Join(criteria.TargetCountries, "/")
	}
	return fmt.Sprintf("%s · %s · %d 条结果", mode, countries, len(set.Results))
}
