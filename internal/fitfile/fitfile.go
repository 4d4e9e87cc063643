// Package fitfile turns Garmin FIT activity files into stored activities.
package fitfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	"racetime/internal/store"
)

// ErrNoSession is returned for activity files without a session summary
var ErrNoSession = errors.New("activity file has no session message")

// sourceNamespace scopes content-derived activity ids
var sourceNamespace = uuid.MustParse("5b0f3b9e-7c51-4d0a-9a55-1f1f6c2f0e11")

// Decode reads one FIT activity file. The activity's SourceID is derived from the
// file contents so importing the same file twice updates a single row.
func Decode(r io.Reader, name string) (*store.Activity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read FIT file: %w", err)
	}

	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSession
	}

	a := FromSession(activity.Sessions[0])
	a.SourceID = uuid.NewSHA1(sourceNamespace, data).String()
	a.Name = name
	if a.StartDate.IsZero() && activity.Activity != nil {
		a.StartDate = validTimeOrZero(activity.Activity.Timestamp)
	}
	if a.StartDate.IsZero() {
		return nil, errors.New("activity has no valid start time")
	}
	return a, nil
}

// FromSession maps a FIT session summary onto an activity row
func FromSession(session *fit.SessionMsg) *store.Activity {
	a := &store.Activity{
		Source:             store.SourceFIT,
		Type:               activityType(session.Sport, session.SubSport),
		StartDate:          validTimeOrZero(session.StartTime).UTC(),
		Distance:           safePositive(session.GetTotalDistanceScaled()),
		TotalElevationGain: float64(validUint16(session.TotalAscent)),
	}

	elapsed := safePositive(session.GetTotalElapsedTimeScaled())
	timer := safePositive(session.GetTotalTimerTimeScaled())
	if elapsed == 0 {
		elapsed = timer
	}
	if timer == 0 {
		timer = elapsed
	}
	a.ElapsedTime = int(math.Round(elapsed))
	a.MovingTime = int(math.Round(timer))

	if hr := validUint8(session.AvgHeartRate); hr > 0 {
		v := float64(hr)
		a.AverageHeartrate = &v
	}
	if hr := validUint8(session.MaxHeartRate); hr > 0 {
		v := float64(hr)
		a.MaxHeartrate = &v
	}
	return a
}

// activityType uses the Strava type names the store filters on
func activityType(sport fit.Sport, sub fit.SubSport) string {
	if sport != fit.SportRunning {
		return fmt.Sprint(sport)
	}
	switch sub {
	case fit.SubSportTrail:
		return "TrailRun"
	case fit.SubSportVirtualActivity:
		return "VirtualRun"
	}
	return "Run"
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
