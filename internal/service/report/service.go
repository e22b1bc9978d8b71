// Package report serves the paginated, role-scoped listings and the
// dashboard aggregations (analytics counters and registration charts).
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

const (
	DefaultPatientLimit = 50
	DefaultStudyLimit   = 100

	cacheTTL = 5 * time.Minute
)

type Service struct {
	patients      repository.PatientRepository
	studies       repository.StudyRepository
	practitioners repository.PractitionerRepository
	cache         *redis.Client
}

func NewService(
	patients repository.PatientRepository,
	studies repository.StudyRepository,
	practitioners repository.PractitionerRepository,
	cache *redis.Client,
) *Service {
	return &Service{
		patients:      patients,
		studies:       studies,
		practitioners: practitioners,
		cache:         cache,
	}
}

// normalizePage rejects non-positive pagination inputs. Defaults for absent
// params are applied at the handler; an explicit zero or negative is an
// error, never silently corrected.
func normalizePage(page, limit int) (int, int, error) {
	if page < 1 || limit < 1 {
		return 0, 0, apperror.BadRequest("invalid pagination parameters")
	}
	return page, limit, nil
}

// normalizeRange defaults the date range to [epoch, now).
func normalizeRange(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	if end.IsZero() {
		end = time.Now()
	}
	return start, end
}

// ListPatients returns the page of patients the caller may see. Doctors and
// system practitioners are scoped to patients reachable through their own
/// assignments: the id set is collected first, then patients are filtered by
// it, because the boundary is assignment-based rather than ownership-based.
func (s *Service) ListPatients(ctx context.Context, caller model.Identity, f *model.PatientFilters) ([]*model.Patient, httputil.PageMeta, error) {
	page, limit, err := normalizePage(f.Page, f.Limit)
	if err != nil {
		return nil, httputil.PageMeta{}, err
	}
	f.Page, f.Limit = page, limit
	f.StartDate, f.EndDate = normalizeRange(f.StartDate, f.EndDate)
	f.CenterID = caller.CenterID

	scoped, err := s.assignmentScope(ctx, caller, f.StartDate, f.EndDate)
	if err != nil {
		return nil, httputil.PageMeta{}, err
	}
	if scoped != nil {
		f.PatientIDs = scoped
	}

	patients, total, err := s.patients.List(ctx, f)
	if err != nil {
		return nil, httputil.PageMeta{}, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, httputil.NewPageMeta(total, page, limit), nil
}

// ListStudies returns the cross-patient study page for the reports screen.
func (s *Service) ListStudies(ctx context.Context, caller model.Identity, f *model.StudyFilters) ([]*model.PatientStudy, httputil.PageMeta, error) {
	page, limit, err := normalizePage(f.Page, f.Limit)
	if err != nil {
		return nil, httputil.PageMeta{}, err
	}
	f.Page, f.Limit = page, limit
	f.StartDate, f.EndDate = normalizeRange(f.StartDate, f.EndDate)
	f.CenterID = caller.CenterID

	if s.assignmentScoped(ctx, caller) {
		id := caller.SubjectID
		f.PractitionerID = &id
	}

	studies, total, err := s.studies.List(ctx, f)
	if err != nil {
		return nil, httputil.PageMeta{}, fmt.Errorf("failed to list studies: %w", err)
	}
	return studies, httputil.NewPageMeta(total, page, limit), nil
}

// assignmentScope returns the patient ids a doctor or system practitioner
// may see, nil for callers with center-wide visibility.
func (s *Service) assignmentScope(ctx context.Context, caller model.Identity, start, end time.Time) ([]uuid.UUID, error) {
	if !s.assignmentScoped(ctx, caller) {
		return nil, nil
	}
	ids, err := s.studies.DistinctPatientIDs(ctx, caller.SubjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignment scope: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

func (s *Service) assignmentScoped(ctx context.Context, caller model.Identity) bool {
	if caller.Role == model.RoleCenterAdmin {
		return false
	}
	prac, err := s.practitioners.Get(ctx, caller.SubjectID)
	if err != nil {
		// unknown practitioners get the narrowest scope
		return true
	}
	if prac.Type == model.PractitionerTypeCenter && prac.Role == model.RoleRadiologist {
		return false
	}
	return true
}

// Analytics returns the per-center dashboard counters, cached briefly in
// Redis since every dashboard load requests them.
func (s *Service) Analytics(ctx context.Context, caller model.Identity) (*model.Analytics, error) {
	key := "analytics:" + caller.CenterID.String()
	if cached := s.cacheGet(ctx, key); cached != nil {
		var a model.Analytics
		if err := json.Unmarshal(cached, &a); err == nil {
			return &a, nil
		}
	}

	patientCount, err := s.patients.CountByCenter(ctx, caller.CenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	studyCount, err := s.studies.CountByCenter(ctx, caller.CenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to count studies: %w", err)
	}
	dicomCount, err := s.studies.DicomCountByCenter(ctx, caller.CenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to count dicoms: %w", err)
	}

	a := &model.Analytics{
		PatientCount: patientCount,
		StudyCount:   studyCount,
		DicomCount:   dicomCount,
	}
	s.cacheSet(ctx, key, a)
	return a, nil
}

// Chart aggregates patient registrations into weekday or monthly buckets
// for the current week/year.
func (s *Service) Chart(ctx context.Context, caller model.Identity, q string) (*model.Chart, error) {
	switch q {
	case "weekdays", "monthly":
	default:
		return nil, apperror.BadRequest("chart query must be weekdays or monthly")
	}

	key := fmt.Sprintf("chart:%s:%s", q, caller.CenterID)
	if cached := s.cacheGet(ctx, key); cached != nil {
		var c model.Chart
		if err := json.Unmarshal(cached, &c); err == nil {
			return &c, nil
		}
	}

	var chart model.Chart
	var err error
	if q == "weekdays" {
		chart, err = s.weekdayChart(ctx, caller.CenterID)
	} else {
		chart, err = s.monthlyChart(ctx, caller.CenterID)
	}
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, &chart)
	return &chart, nil
}

func (s *Service) weekdayChart(ctx context.Context, centerID uuid.UUID) (model.Chart, error) {
	labels := []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

	// buckets are UTC days, matching the monthly aggregation
	now := time.Now().UTC()
	// Monday of the current week
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -offset)

	var chart model.Chart
	for i, label := range labels {
		start := monday.AddDate(0, 0, i)
		end := start.AddDate(0, 0, 1)
		count, err := s.patients.CountCreatedBetween(ctx, centerID, start, end)
		if err != nil {
			return model.Chart{}, fmt.Errorf("failed to build weekday chart: %w", err)
		}
		chart.Points = append(chart.Points, model.ChartPoint{Label: label, Count: count})
		chart.Total += count
	}
	return chart, nil
}

func (s *Service) monthlyChart(ctx context.Context, centerID uuid.UUID) (model.Chart, error) {
	labels := []string{
		"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
		"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
	}

	year := time.Now().UTC().Year()
	var chart model.Chart
	for i, label := range labels {
		start := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		count, err := s.patients.CountCreatedBetween(ctx, centerID, start, end)
		if err != nil {
			return model.Chart{}, fmt.Errorf("failed to build monthly chart: %w", err)
		}
		chart.Points = append(chart.Points, model.ChartPoint{Label: label, Count: count})
		chart.Total += count
	}
	return chart, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) []byte {
	if s.cache == nil {
		return nil
	}
	b, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return b
}

func (s *Service) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, cacheTTL).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache write skipped")
	}
}
