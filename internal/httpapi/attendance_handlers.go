package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/export"
	"classtrack/internal/metrics"
)

func (a *API) createSession(c *gin.Context) {
	var req attendance.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	sess, err := a.Attendance.CreateSession(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	metrics.SessionsCreated.Inc()
	c.JSON(http.StatusCreated, sess)
}

func (a *API) getSession(c *gin.Context) {
	detail, err := a.Attendance.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// sessionQRImage renders the session's token as a PNG for classroom
// display.
func (a *API) sessionQRImage(c *gin.Context) {
	detail, err := a.Attendance.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(detail.QRToken, qrcode.Medium, 256)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (a *API) sessionRecords(c *gin.Context) {
	records, err := a.Attendance.RecordsForSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (a *API) scan(c *gin.Context) {
	var req struct {
		QRCode string `json:"qrCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Scans.WithLabelValues(metrics.OutcomeInvalid).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	rec, err := a.Attendance.MarkAttendance(c.Request.Context(), req.QRCode, auth.CurrentUser(c).UserID)
	if err != nil {
		metrics.Scans.WithLabelValues(scanOutcome(err)).Inc()
		a.writeError(c, err)
		return
	}
	metrics.Scans.WithLabelValues(metrics.OutcomeOK).Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked", "record": rec})
}

func scanOutcome(err error) string {
	switch {
	case errors.Is(err, attendance.ErrQRInvalid):
		return metrics.OutcomeInvalid
	case errors.Is(err, attendance.ErrQRExpired):
		return metrics.OutcomeExpired
	case errors.Is(err, attendance.ErrNotEnrolled):
		return metrics.OutcomeForbidden
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeError
	}
}

func (a *API) history(c *gin.Context) {
	entries, err := a.Attendance.History(c.Request.Context(), c.Param("courseId"), auth.CurrentUser(c).UserID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (a *API) calendar(c *gin.Context) {
	entries, err := a.Attendance.Calendar(c.Request.Context(), c.Param("courseId"), auth.CurrentUser(c).UserID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (a *API) roster(c *gin.Context) {
	entries, err := a.Attendance.Roster(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (a *API) attendanceMatrix(c *gin.Context) {
	m, err := a.Attendance.TimetableMatrix(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// exportMatrix streams an xlsx of either matrix variant:
// ?view=timetable (default, nominal 14-week schedule) or ?view=sessions
// (sessions actually held).
func (a *API) exportMatrix(c *gin.Context) {
	courseID := c.Param("courseId")
	view := c.DefaultQuery("view", "timetable")

	var (
		m   attendance.Matrix
		err error
	)
	switch view {
	case "timetable":
		m, err = a.Attendance.TimetableMatrix(c.Request.Context(), courseID)
	case "sessions":
		m, err = a.Attendance.SessionMatrix(c.Request.Context(), courseID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "view must be timetable or sessions"})
		return
	}
	if err != nil {
		a.writeError(c, err)
		return
	}

	wb, err := export.MatrixWorkbook(m)
	if err != nil {
		a.writeError(c, err)
		return
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		a.writeError(c, err)
		return
	}
	metrics.Exports.Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_by_%s.xlsx", view))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
