package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/internal/auth"
	"geoattend/internal/checkin"
	"geoattend/internal/config"
	"geoattend/internal/metrics"
	"geoattend/internal/netid"
	"geoattend/internal/queue"
	"geoattend/internal/report"
	"geoattend/internal/roster"
	"geoattend/internal/session"
)

// api bundles the services the HTTP layer dispatches into.
type api struct {
	cfg      config.App
	log      *zap.Logger
	sessions *session.Service
	roster   *roster.Service
	checkins *checkin.Service
	netid    *netid.Client
	queue    queue.Queue
}

func (a *api) routes(r *gin.Engine) {
	r.POST("/v1/auth/token", a.issueToken)

	authed := r.Group("/v1", auth.Middleware(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))
	authed.GET("/sessions/active", a.listActiveSessions)

	instructor := authed.Group("", auth.RequireRole(auth.RoleInstructor))
	instructor.POST("/sessions", a.createSession)
	instructor.POST("/sessions/:id/stop", a.stopSession)
	instructor.GET("/sessions/:id/attendees", a.listAttendees)
	instructor.POST("/roster", a.importRoster)
	instructor.GET("/roster", a.listRoster)
	instructor.GET("/reports/weekly/:week", a.weeklyReport)
	instructor.GET("/reports/master.csv", a.masterReportCSV)
	instructor.GET("/reports/master.xlsx", a.masterReportXLSX)

	student := authed.Group("", auth.RequireRole(auth.RoleStudent))
	student.POST("/checkins", a.checkIn)
	student.GET("/me/attendance", a.myAttendance)
}

func (a *api) issueToken(c *gin.Context) {
	var req struct {
		Role      string `json:"role" binding:"required"`
		Email     string `json:"email" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		StudentID string `json:"student_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Role {
	case auth.RoleInstructor:
		if a.cfg.InstructorEmail == "" || !strings.EqualFold(req.Email, a.cfg.InstructorEmail) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the configured instructor"})
			return
		}
	case auth.RoleStudent:
		if req.FirstName == "" || req.StudentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "first_name and student_id required"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	token, exp, err := auth.Issue(auth.Claims{
		Role:      req.Role,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		StudentID: req.StudentID,
	}, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": token, "expires_at": exp.Unix()})
}

func (a *api) createSession(c *gin.Context) {
	var req struct {
		Type      string  `json:"type" binding:"required"`
		Name      string  `json:"name" binding:"required"`
		Group     string  `json:"group" binding:"required"`
		Week      int     `json:"week" binding:"required"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Radius    int     `json:"radius"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)

	sess, err := a.sessions.Create(c.Request.Context(), session.CreateParams{
		Type:      session.Type(req.Type),
		Name:      req.Name,
		Group:     req.Group,
		Week:      req.Week,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		CreatedBy: claims.Email,
	}, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (a *api) stopSession(c *gin.Context) {
	err := a.sessions.Stop(c.Request.Context(), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (a *api) listActiveSessions(c *gin.Context) {
	sessions, err := a.sessions.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (a *api) listAttendees(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := a.sessions.Get(ctx, c.Param("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records, err := a.checkins.Ledger().ListBySession(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendees": records})
}

func (a *api) importRoster(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	n, err := a.roster.Import(c.Request.Context(), string(body))
	if errors.Is(err, roster.ErrEmptyImport) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format: use \"id, full name\" per line"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (a *api) listRoster(c *gin.Context) {
	students, err := a.roster.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (a *api) checkIn(c *gin.Context) {
	var req struct {
		SessionID string   `json:"session_id" binding:"required"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	sess, err := a.sessions.Get(ctx, req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !sess.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "session is no longer active"})
		return
	}

	claims, _ := auth.FromContext(c)
	stu := checkin.Student{
		ID:        claims.StudentID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}

	var loc checkin.LocationSource
	if req.Latitude != nil && req.Longitude != nil {
		loc = checkin.StaticLocation(*req.Latitude, *req.Longitude)
	} else {
		loc = checkin.LocationFunc(func(context.Context) (checkin.Coordinates, error) {
			return checkin.Coordinates{}, errors.New("no coordinates reported")
		})
	}
	remoteIP := c.ClientIP()
	net := checkin.NetworkFunc(func(ctx context.Context) string {
		return a.netid.Lookup(ctx, remoteIP)
	})

	start := time.Now()
	rec, err := a.checkins.Attempt(ctx, sess, stu, loc, net, time.Now())
	if err != nil {
		var ce *checkin.Error
		if errors.As(err, &ce) {
			metrics.ObserveCheckin(string(ce.Code), time.Since(start))
			a.renderCheckinError(c, ce)
			return
		}
		metrics.ObserveCheckin("internal_error", time.Since(start))
		a.log.Error("check-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	metrics.ObserveCheckin("accepted", time.Since(start))

	if payload, err := json.Marshal(rec); err == nil {
		if err := a.queue.Publish(ctx, queue.Message{Type: "checkin", Body: payload}); err != nil {
			a.log.Warn("queue publish failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, rec)
}

func (a *api) renderCheckinError(c *gin.Context, ce *checkin.Error) {
	status := http.StatusForbidden
	switch ce.Code {
	case checkin.CodeWindowExpired:
		status = http.StatusGone
	case checkin.CodeAlreadyCheckedIn:
		status = http.StatusConflict
	case checkin.CodeLocationUnavailable:
		status = http.StatusServiceUnavailable
	}
	body := gin.H{"error": ce.Message, "code": ce.Code, "retryable": ce.Retryable}
	if ce.Code == checkin.CodeOutOfRange {
		body["distance_m"] = ce.Distance
		body["radius_m"] = ce.Radius
	}
	c.JSON(status, body)
}

func (a *api) myAttendance(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	records, err := a.checkins.Ledger().ListByStudent(c.Request.Context(), claims.StudentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (a *api) weeklyReport(c *gin.Context) {
	week, err := strconv.Atoi(strings.TrimSuffix(c.Param("week"), ".csv"))
	if err != nil || week < 1 || week > session.WeeksPerTerm {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("week must be 1..%d", session.WeeksPerTerm)})
		return
	}
	ctx := c.Request.Context()
	sessions, records, err := a.reportInputs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := report.Weekly(week, sessions, records)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance_week_%d.csv"`, week))
	if err := report.WriteWeeklyCSV(c.Writer, rows); err != nil {
		a.log.Error("weekly export failed", zap.Error(err))
	}
}

func (a *api) masterReportCSV(c *gin.Context) {
	rows, err := a.masterRows(c)
	if err != nil {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="attendance_master.csv"`)
	if err := report.WriteMasterCSV(c.Writer, rows); err != nil {
		a.log.Error("master export failed", zap.Error(err))
	}
}

func (a *api) masterReportXLSX(c *gin.Context) {
	rows, err := a.masterRows(c)
	if err != nil {
		return
	}
	f, err := report.MasterWorkbook(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="attendance_master.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		a.log.Error("master xlsx export failed", zap.Error(err))
	}
}

// masterRows loads report inputs and renders errors itself; a non-nil error
// means the response is already written.
func (a *api) masterRows(c *gin.Context) ([]report.MasterRow, error) {
	ctx := c.Request.Context()
	students, err := a.roster.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, err
	}
	sessions, records, err := a.reportInputs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, err
	}
	return report.Master(students, sessions, records), nil
}

func (a *api) reportInputs(ctx context.Context) ([]session.Session, []checkin.Record, error) {
	sessions, err := a.sessions.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := a.checkins.Ledger().ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sessions, records, nil
}
