package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"sip-go/internal/database/sqlc"
	"sip-go/internal/sip"
)

type intakeLog struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	LogicalDate string    `json:"logical_date"`
}

type snapshot struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	GoalForDay  int64     `json:"goal_for_day"`
	TotalIntake int64     `json:"total_intake"`
	GoalMet     bool      `json:"goal_met"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toLogs(events []*sqlc.IntakeEvent) []intakeLog {
	logs := make([]intakeLog, 0, len(events))
	for _, e := range events {
		logs = append(logs, intakeLog{
			ID:          e.ID,
			UserID:      e.UserID,
			Amount:      e.AmountMl,
			Timestamp:   e.LoggedAt,
			LogicalDate: e.LogicalDate,
		})
	}
	return logs
}

func toSnapshot(s *sqlc.DailySnapshot) *snapshot {
	if s == nil {
		return nil
	}
	return &snapshot{
		ID:          s.ID,
		UserID:      s.UserID,
		Date:        s.Date,
		GoalForDay:  s.GoalForDay,
		TotalIntake: s.TotalIntake,
		GoalMet:     s.GoalMet,
		UpdatedAt:   s.UpdatedAt,
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryInt64 returns def when the parameter is absent.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "sip backend running"})
}

type logRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Goal   int64  `json:"goal"`
	Date   string `json:"date,omitempty"`
	Today  string `json:"today,omitempty"`
}

type logResponse struct {
	Status     string      `json:"status"`
	TotalToday int64       `json:"total_today"`
	TodayLogs  []intakeLog `json:"today_logs"`
	LogID      int64       `json:"log_id"`
	LoggedDate string      `json:"logged_date"`
	Snapshot   *snapshot   `json:"snapshot"`
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "user_id is required")
		return
	}

	result, err := s.svc.LogIntake(sip.LogIntakeRequest{
		UserID:   req.UserID,
		AmountMl: req.Amount,
		Goal:     req.Goal,
		Date:     req.Date,
		Today:    req.Today,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.intakeLogged.Add(float64(req.Amount))

	writeJSON(w, http.StatusOK, logResponse{
		Status:     "success",
		TotalToday: result.TotalForDate,
		TodayLogs:  toLogs(result.Events),
		LogID:      result.EventID,
		LoggedDate: result.ResolvedDate,
		Snapshot:   toSnapshot(result.Snapshot),
	})
}

type deleteResponse struct {
	Status        string      `json:"status"`
	DeletedAmount int64       `json:"deleted_amount"`
	LogicalDate   string      `json:"logical_date"`
	TotalToday    int64       `json:"total_today"`
	TodayLogs     []intakeLog `json:"today_logs"`
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid log id")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeBadRequest(w, "user_id is required")
		return
	}

	result, err := s.svc.DeleteIntake(id, userID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.intakeDeleted.Add(float64(result.DeletedAmount))

	writeJSON(w, http.StatusOK, deleteResponse{
		Status:        "success",
		DeletedAmount: result.DeletedAmount,
		LogicalDate:   result.LogicalDate,
		TotalToday:    result.TotalForDate,
		TodayLogs:     toLogs(result.Events),
	})
}

type updateGoalRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Goal   int64  `json:"goal"`
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "user_id is required")
		return
	}

	snap, err := s.svc.SetGoal(req.UserID, req.Date, req.Goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"snapshot": toSnapshot(snap),
	})
}

type historyResponse struct {
	Date           string      `json:"date"`
	Logs           []intakeLog `json:"logs"`
	TotalToday     int64       `json:"total_today"`
	HistoricalGoal int64       `json:"historical_goal"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.GetHistory(mux.Vars(r)["user_id"], r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Date:           history.Date,
		Logs:           toLogs(history.Events),
		TotalToday:     history.Total,
		HistoricalGoal: history.ResolvedGoal,
	})
}

type dailyTotal struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

type statsResponse struct {
	Daily      []dailyTotal `json:"daily"`
	Streak     int          `json:"streak"`
	WeekAvg    int64        `json:"week_avg"`
	WeekTotal  int64        `json:"week_total"`
	MonthTotal int64        `json:"month_total"`
}

// clientToday returns the caller's logical today from ?today, or from ?client_date
// as older clients send it.
func clientToday(r *http.Request) string {
	q := r.URL.Query()
	if today := q.Get("today"); today != "" {
		return today
	}
	return q.Get("client_date")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt64(r, "days", sip.DefaultStatsDays)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	goal, err := queryInt64(r, "goal", 0)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	stats, err := s.svc.GetStats(sip.StatsRequest{
		UserID:     mux.Vars(r)["user_id"],
		WindowDays: int(days),
		Today:      clientToday(r),
		Goal:       goal,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	daily := make([]dailyTotal, 0, len(stats.Daily))
	for _, d := range stats.Daily {
		daily = append(daily, dailyTotal{Date: d.Date, Total: d.Total})
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Daily:      daily,
		Streak:     stats.Streak,
		WeekAvg:    stats.WeekAverage,
		WeekTotal:  stats.WeekTotal,
		MonthTotal: stats.MonthTotal,
	})
}

type importEntry struct {
	Amount    int64  `json:"amount"`
	Timestamp string `json:"timestamp,omitempty"`
	Date      string `json:"date,omitempty"`
}

type importRequest struct {
	UserID  string        `json:"user_id"`
	Goal    int64         `json:"goal"`
	Entries []importEntry `json:"entries"`
}

type skippedEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Status       string         `json:"status"`
	Imported     int            `json:"imported"`
	Duplicates   int            `json:"duplicates"`
	Skipped      []skippedEntry `json:"skipped"`
	DatesTouched []string       `json:"dates_touched"`
	FailedDates  []string       `json:"failed_dates,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "user_id is required")
		return
	}

	entries := make([]sip.ImportEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, sip.ImportEntry{AmountMl: e.Amount, Timestamp: e.Timestamp, Date: e.Date})
	}

	result, err := s.svc.BulkImport(req.UserID, entries, req.Goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.recordImport(result.Imported, result.Duplicates, len(result.Skipped))

	skipped := make([]skippedEntry, 0, len(result.Skipped))
	for _, sk := range result.Skipped {
		skipped = append(skipped, skippedEntry{Index: sk.Index, Reason: sk.Reason})
	}
	dates := result.DatesTouched
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, importResponse{
		Status:       "success",
		Imported:     result.Imported,
		Duplicates:   result.Duplicates,
		Skipped:      skipped,
		DatesTouched: dates,
		FailedDates:  result.FailedDates,
	})
}

type claimRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Goal       int64  `json:"goal"`
}

type claimResponse struct {
	Status               string   `json:"status"`
	LogsTransferred      int64    `json:"logs_transferred"`
	SnapshotsTransferred int      `json:"snapshots_transferred"`
	DatesAffected        []string `json:"dates_affected"`
	FailedDates          []string `json:"failed_dates,omitempty"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.FromUserID == "" || req.ToUserID == "" {
		writeBadRequest(w, "from_user_id and to_user_id are required")
		return
	}

	result, err := s.svc.ClaimGuestData(req.FromUserID, req.ToUserID, req.Goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dates := result.DatesAffected
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, claimResponse{
		Status:               "success",
		LogsTransferred:      result.LogsTransferred,
		SnapshotsTransferred: result.SnapshotsTransferred,
		DatesAffected:        dates,
		FailedDates:          result.FailedDates,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeBadRequest(w, "user_id is required")
		return
	}
	goal, err := queryInt64(r, "goal", 0)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	message, err := s.svc.Feedback(r.Context(), userID, goal, r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
