package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
	"classtrack/internal/catalog"
)

type courseRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CreditHours int    `json:"creditHours" binding:"required"`
	Description string `json:"description"`
}

func (a *API) createCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	course, err := a.Catalog.CreateCourse(c.Request.Context(), catalog.Course{
		Code:        req.Code,
		Name:        req.Name,
		CreditHours: req.CreditHours,
		Description: req.Description,
		TeacherID:   auth.CurrentUser(c).UserID,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (a *API) listCourses(c *gin.Context) {
	courses, err := a.Catalog.ListCourses(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (a *API) getCourse(c *gin.Context) {
	course, err := a.Catalog.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (a *API) updateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	course, err := a.Catalog.UpdateCourse(c.Request.Context(), catalog.Course{
		ID:          c.Param("id"),
		Code:        req.Code,
		Name:        req.Name,
		CreditHours: req.CreditHours,
		Description: req.Description,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (a *API) deleteCourse(c *gin.Context) {
	if err := a.Catalog.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

func (a *API) enrollStudent(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	// Enrollment is by email: look the student up first.
	student, err := a.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil {
		a.writeError(c, err)
		return
	}
	enrollment, err := a.Catalog.Enroll(c.Request.Context(), c.Param("id"), student.ID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (a *API) unenrollStudent(c *gin.Context) {
	if err := a.Catalog.Unenroll(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student removed"})
}

func (a *API) enrolledStudents(c *gin.Context) {
	students, err := a.Catalog.EnrolledStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}
