package services

import (
	"sync"
	"testing"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memVersionRepo struct {
	mu       sync.Mutex
	versions []models.RecommendationVersion
}

func (r *memVersionRepo) Append(version *models.RecommendationVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions = append(r.versions, *version)
	return nil
}

func (r *memVersionRepo) ListByStudent(studentID string) ([]models.RecommendationVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RecommendationVersion
	for i := len(r.versions) - 1; i >= 0; i-- {
		if r.versions[i].StudentID == studentID {
			out = append(out, r.versions[i])
		}
	}
	return out, nil
}

func (r *memVersionRepo) Adopt(versionID string) (*models.RecommendationVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := -1
	for i := range r.versions {
		if r.versions[i].ID == versionID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, repositories.ErrVersionNotFound
	}
	for i := range r.versions {
		if r.versions[i].StudentID == r.versions[target].StudentID {
			r.versions[i].Adopted = false
		}
	}
	r.versions[target].Adopted = true
	adopted := r.versions[target]
	return &adopted, nil
}

func resultSet(studentID string, mode models.SearchMode, n int) *dto.RecommendationSet {
	results := make([]dto.RecommendationResult, n)
	return &dto.RecommendationSet{
		RunID:     "run-1",
		StudentID: studentID,
		Mode:      mode,
		Results:   results,
		Counts:    dto.TierCounts{Reach: 1, Match: n - 1},
	}
}

func TestVersionService_AppendIsImmutableHistory(t *testing.T) {
	repo := &memVersionRepo{}
	svc := NewVersionService(repo, nil)

	criteria := &dto.MatchCriteria{TargetCountries: []string{"美国", "英国"}}
	v1, err := svc.AppendFromRun(resultSet("stu-1", models.SearchModeQuick, 3), criteria)
	require.NoError(t, err)
	v2, err := svc.AppendFromRun(resultSet("stu-1", models.SearchModeDeep, 5), criteria)
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID, v2.ID)
	assert.Contains(t, v2.Summary, "深度搜索")
	assert.Contains(t, v2.Summary, "美国/英国")
	assert.Equal(t, 5, v2.ResultCount)

	versions, err := svc.ListForStudent("stu-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	// Newest first; appending never rewrote the earlier snapshot.
	assert.Equal(t, v2.ID, versions[0].ID)
	assert.Equal(t, v1.ID, versions[1].ID)
	assert.Equal(t, 3, versions[1].ResultCount)
}

func TestVersionService_AdoptMovesSingleFlag(t *testing.T) {
	repo := &memVersionRepo{}
	svc := NewVersionService(repo, nil)

	criteria := &dto.MatchCriteria{TargetCountries: []string{"美国"}}
	v1, err := svc.AppendFromRun(resultSet("stu-1", models.SearchModeQuick, 3), criteria)
	require.NoError(t, err)
	v2, err := svc.AppendFromRun(resultSet("stu-1", models.SearchModeDeep, 5), criteria)
	require.NoError(t, err)

	adopted, err := svc.Adopt(v1.ID)
	require.NoError(t, err)
	assert.True(t, adopted.Adopted)

	// Adopting v2 clears v1; the flag never sits on two versions at once.
	_, err = svc.Adopt(v2.ID)
	require.NoError(t, err)

	versions, err := svc.ListForStudent("stu-1")
	require.NoError(t, err)
	adoptedCount := 0
	for _, v := range versions {
		if v.Adopted {
			adoptedCount++
			assert.Equal(t, v2.ID, v.ID)
		}
	}
	assert.Equal(t, 1, adoptedCount)
}

func TestVersionService_AdoptUnknownID(t *testing.T) {
	svc := NewVersionService(&memVersionRepo{}, nil)
	_, err := svc.Adopt("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrVersionNotFound)
}
