package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/dispatch"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
)

// serverVersion is reported with every status ping.
const serverVersion = "1.0.0"

// StatusReport is the aggregate usage snapshot POSTed to the status
// endpoint. It contains counts only, never user data.
type StatusReport struct {
	ServerVersion   string                   `json:"serverVersion"`
	LicenseCount    int                      `json:"licenseCount"`
	UserAppVersions []string                 `json:"userAppVersions"`
	SecurityGraph   *SecurityGraph           `json:"securityGraph"`
	StatsByGroup    []repositories.GroupStat `json:"statsByGroup"`
}

// SecurityGraph is the per-day sum of the vault security snapshots. Def
// names the columns of each Data row; the first column is the day, the
// rest are counts summed over all users.
type SecurityGraph struct {
	Def  []string `json:"def"`
	Data [][]any  `json:"data"`
}

type StatusService struct {
	stats   repositories.StatsRepository
	devices repositories.DeviceRepository
	queue   dispatch.Submitter
	url     string
	client  *http.Client
	log     *zap.Logger
}

func NewStatusService(stats repositories.StatsRepository, devices repositories.DeviceRepository, queue dispatch.Submitter, url string, log *zap.Logger) *StatusService {
	return &StatusService{
		stats:   stats,
		devices: devices,
		queue:   queue,
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Run sends one status update per interval until ctx is cancelled.
func (s *StatusService) Run(ctx context.Context, interval time.Duration) {
	if s.url == "" {
		s.log.Info("status reporting disabled, no url configured")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SendStatusUpdate(ctx)
		}
	}
}

// SendStatusUpdate collects the aggregates and submits the POST to the
// background queue; the caller never waits on delivery.
func (s *StatusService) SendStatusUpdate(ctx context.Context) {
	report, err := s.collect(ctx)
	if err != nil {
		s.log.Error("collect status report", zap.Error(err))
		return
	}
	s.queue.Submit("status-ping", func() error {
		return s.post(report)
	})
}

func (s *StatusService) collect(ctx context.Context) (*StatusReport, error) {
	licenseCount, err := s.stats.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := s.devices.DistinctAuthorizedAppVersions(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.stats.GroupStats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.stats.PruneDailyStats(ctx); err != nil {
		return nil, err
	}
	daily, err := s.stats.DailyStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		ServerVersion:   serverVersion,
		LicenseCount:    licenseCount,
		UserAppVersions: versions,
		SecurityGraph:   buildSecurityGraph(daily),
		StatsByGroup:    groups,
	}, nil
}

var securityGraphDef = []string{"d", "n", "cd", "st", "md", "wk", "no", "dp", "gr", "or", "rd"}

// buildSecurityGraph sums the per-user snapshots into one row per day
// over the continuous day range of the input. A user without a snapshot
// on a given day keeps contributing their last known one, so the curve
// never dips just because a client skipped an upload.
func buildSecurityGraph(rows []repositories.DailyStat) *SecurityGraph {
	if len(rows) == 0 {
		return &SecurityGraph{Def: []string{}, Data: [][]any{}}
	}

	const dayFormat = "2006-01-02"
	perUser := make(map[int64]map[string]repositories.DailyStat)
	for _, r := range rows {
		day := r.Day.UTC().Format(dayFormat)
		if perUser[r.UserID] == nil {
			perUser[r.UserID] = make(map[string]repositories.DailyStat)
		}
		perUser[r.UserID][day] = r
	}

	// rows are ordered by day, so first and last bound the range
	start := rows[0].Day.UTC().Truncate(24 * time.Hour)
	end := rows[len(rows)-1].Day.UTC().Truncate(24 * time.Hour)

	var data [][]any
	lastKnown := make(map[int64]repositories.DailyStat)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayFormat)
		var n, cd, st, md, wk, no, dp, gr, or, rd int
		for userID, snapshots := range perUser {
			if s, ok := snapshots[key]; ok {
				lastKnown[userID] = s
			}
			s, ok := lastKnown[userID]
			if !ok {
				continue
			}
			n += s.NbAccounts
			cd += s.NbCodes
			st += s.NbStrong
			md += s.NbMedium
			wk += s.NbWeak
			no += s.NbNoPassword
			dp += s.NbDuplicate
			gr += s.NbGreen
			or += s.NbOrange
			rd += s.NbRed
		}
		data = append(data, []any{key, n, cd, st, md, wk, no, dp, gr, or, rd})
	}
	return &SecurityGraph{Def: securityGraphDef, Data: data}
}

func (s *StatusService) post(report *StatusReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal status report: %w", err)
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post status report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status endpoint answered %s", resp.Status)
	}
	return nil
}
