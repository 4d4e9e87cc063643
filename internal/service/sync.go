package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"racetime/internal/logger"
	"racetime/internal/metrics"
	"racetime/internal/store"
	"racetime/internal/strava"
)

// syncPageSize is the largest page Strava serves
const syncPageSize = 100

// ActivityFetcher pages through the athlete's Strava activities
type ActivityFetcher interface {
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
}

// SyncService orchestrates syncing data from Strava
type SyncService struct {
	client  ActivityFetcher
	store   *store.DB
	log     logrus.FieldLogger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(client ActivityFetcher, db *store.DB, log logrus.FieldLogger, rec *metrics.Recorder) *SyncService {
	if log == nil {
		log = logger.Discard()
	}
	return &SyncService{client: client, store: db, log: log, metrics: rec, now: time.Now}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities"
	Page            int
	Fetched         int
	Stored          int
	CurrentActivity string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	RacesStored       int
	RunsWithHR        int
	Errors            []error
}

// SyncAll fetches runs newer than the last synced activity, stores them and
// records Strava-flagged races. progress, if non-nil, is closed on return.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}
	if err := s.syncActivities(ctx, progress, result); err != nil {
		s.metrics.SyncFailed()
		s.log.WithError(err).Error("strava sync failed")
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	now := s.now()
	if err := s.store.SetSyncState(ctx, store.SyncKeyLastSync, now.UTC().Format(time.RFC3339)); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("saving sync time: %w", err))
	}
	s.metrics.SyncSucceeded(result.ActivitiesStored, now)
	s.log.WithFields(logrus.Fields{
		"fetched": result.ActivitiesFetched,
		"stored":  result.ActivitiesStored,
		"races":   result.RacesStored,
		"errors":  len(result.Errors),
	}).Info("strava sync finished")
	return result, nil
}

// syncActivities pages through Strava and upserts every run
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	after, err := s.lastActivityTime(ctx)
	if err != nil {
		return err
	}
	newest := after

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		activities, err := s.client.GetActivities(ctx, after, page, syncPageSize)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", page, err)
		}
		result.ActivitiesFetched += len(activities)

		for _, a := range activities {
			act := convertActivity(a)
			if !act.IsRun() {
				continue
			}
			id, err := s.store.UpsertActivity(ctx, act)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
				continue
			}
			result.ActivitiesStored++
			if act.AverageHeartrate != nil {
				result.RunsWithHR++
			}
			if act.StartDate.After(newest) {
				newest = act.StartDate
			}

			if act.IsRace() {
				if err := s.store.UpsertRaceForActivity(ctx, raceFromActivity(id, act)); err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("storing race %d: %w", a.ID, err))
					continue
				}
				result.RacesStored++
			}

			if progress != nil {
				select {
				case progress <- SyncProgress{
					Phase:           "activities",
					Page:            page,
					Fetched:         result.ActivitiesFetched,
					Stored:          result.ActivitiesStored,
					CurrentActivity: act.Name,
				}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if len(activities) < syncPageSize {
			break // Last page
		}
	}

	if newest.After(after) {
		if err := s.store.SetSyncState(ctx, store.SyncKeyLastActivity, newest.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("saving sync cursor: %w", err)
		}
	}
	return nil
}

// lastActivityTime returns the sync cursor, falling back to the newest stored Strava run
func (s *SyncService) lastActivityTime(ctx context.Context) (time.Time, error) {
	v, err := s.store.GetSyncState(ctx, store.SyncKeyLastActivity)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading sync cursor: %w", err)
	}
	if v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		s.log.WithField("value", v).Warn("ignoring unparseable sync cursor")
	}
	return s.store.LatestActivityDate(ctx, store.SourceStrava)
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		Source:             store.SourceStrava,
		SourceID:           strconv.FormatInt(a.ID, 10),
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate.UTC(),
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		WorkoutType:        a.WorkoutType,
	}
	if a.SportType == "TrailRun" || a.SportType == "VirtualRun" {
		activity.Type = a.SportType
	}

	if a.HasHeartrate && a.AverageHeartrate > 0 {
		hr := a.AverageHeartrate
		activity.AverageHeartrate = &hr
	}
	if a.HasHeartrate && a.MaxHeartrate > 0 {
		hr := a.MaxHeartrate
		activity.MaxHeartrate = &hr
	}
	return activity
}

// raceFromActivity records a race with its elapsed (gun) time
func raceFromActivity(activityID int64, a *store.Activity) *store.Race {
	seconds := a.ElapsedTime
	if seconds <= 0 {
		seconds = a.MovingTime
	}
	return &store.Race{
		ActivityID:     &activityID,
		Name:           a.Name,
		DistanceMeters: a.Distance,
		TimeSeconds:    float64(seconds),
		Date:           a.StartDate,
		Tags:           []string{"race", store.SourceStrava},
	}
}
