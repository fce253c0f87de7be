package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/catalog"
)

type timetableRequest struct {
	CourseID  string `json:"course" binding:"required"`
	DayOfWeek string `json:"dayOfWeek" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Classroom string `json:"classroom" binding:"required"`
}

func (a *API) createTimetable(c *gin.Context) {
	var req timetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	tt, err := a.Catalog.CreateTimetable(c.Request.Context(), catalog.Timetable{
		CourseID:  req.CourseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Classroom: req.Classroom,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tt)
}

func (a *API) listTimetables(c *gin.Context) {
	tts, err := a.Catalog.ListTimetables(c.Request.Context(), c.Query("course"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tts)
}

func (a *API) listTimetablesByCourse(c *gin.Context) {
	tts, err := a.Catalog.ListTimetables(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tts)
}

func (a *API) updateTimetable(c *gin.Context) {
	var req struct {
		DayOfWeek string `json:"dayOfWeek" binding:"required"`
		StartTime string `json:"startTime" binding:"required"`
		EndTime   string `json:"endTime" binding:"required"`
		Classroom string `json:"classroom" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	tt, err := a.Catalog.UpdateTimetable(c.Request.Context(), catalog.Timetable{
		ID:        c.Param("id"),
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Classroom: req.Classroom,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tt)
}

func (a *API) deleteTimetable(c *gin.Context) {
	if err := a.Catalog.DeleteTimetable(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Timetable deleted"})
}
