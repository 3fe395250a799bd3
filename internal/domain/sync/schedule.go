package sync

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/robfig/cron/v3"
)

// ScheduleType selects how the next run of a job is computed
type ScheduleType string

const (
	// ScheduleTypeInterval repeats at a fixed interval
	ScheduleTypeInterval ScheduleType = "interval"
	// ScheduleTypeCron repeats according to a cron expression
	ScheduleTypeCron ScheduleType = "cron"
)

// IsValid returns true if the schedule type is valid
func (t ScheduleType) IsValid() bool {
	return t == ScheduleTypeInterval || t == ScheduleTypeCron
}

// String returns the string representation of ScheduleType
func (t ScheduleType) String() string {
	return string(t)
}

// cronParser accepts standard five-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule describes when a sync job recurs
type Schedule struct {
	Type     ScheduleType  `json:"type"`
	Interval time.Duration `json:"interval,omitempty"`
	CronExpr string        `json:"cron_expr,omitempty"`
	Enabled  bool          `json:"enabled"`
}

// Validate checks the schedule declaration
func (s Schedule) Validate() *shared.ValidationError {
	verr := &shared.ValidationError{}
	switch s.Type {
	case ScheduleTypeInterval:
		if s.Interval <= 0 {
			verr.Add("schedule.interval", "interval must be positive")
		}
	case ScheduleTypeCron:
		if s.CronExpr == "" {
			verr.Add("schedule.cron_expr", "cron expression is required")
		} else if _, err := cronParser.Parse(s.CronExpr); err != nil {
			verr.Add("schedule.cron_expr", "invalid cron expression: "+err.Error())
		}
	default:
		verr.Add("schedule.type", "unknown schedule type")
	}
	return verr
}

// NextRun computes the next due time after the given last run.
// Interval schedules are due at lastRun+interval, or now when the job
// has never run. Cron schedules are due at the next expression match
// strictly after lastRun.
func (s Schedule) NextRun(lastRun *time.Time, now time.Time) (time.Time, error) {
	switch s.Type {
	case ScheduleTypeInterval:
		if lastRun == nil {
			return now, nil
		}
		return lastRun.Add(s.Interval), nil
	case ScheduleTypeCron:
		sched, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return time.Time{}, err
		}
		after := now
		if lastRun != nil {
			after = *lastRun
		}
		return sched.Next(after), nil
	default:
		return time.Time{}, shared.NewDomainError("INVALID_INPUT", "unknown schedule type")
	}
}
