package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-api/internal/middleware"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
	"github.com/scholaris/scholaris-api/internal/services"
)

type StudentHandler struct {
	studentService *services.StudentService
}

func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// @Summary List Students
// @Description Get a paginated list of students
// @Tags Students
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param class_id query int false "Filter by class"
// @Param search query string false "Search by name or admission number"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["class_id"] = c.Query("class_id")
	if search := c.Query("search"); search != "" {
		query.Filters["search_term"] = search
	}
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	students, total, err := h.studentService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range students {
		responses = append(responses, students[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"students": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Student
// @Description Get a student by ID
// @Tags Students
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} models.StudentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /students/{student_id} [get]
func (h *StudentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)
	student, err := h.studentService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student.ToResponse()})
}

// @Summary Create Student
// @Description Enrolls a new student
// @Tags Students
// @Accept json
// @Produce json
// @Param request body models.Student true "Student data"
// @Success 201 {object} models.StudentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var student models.Student
	if err := BindNestedOrFlat(c, "student", &student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if student.FirstName == "" || student.AdmissionNo == "" || student.ClassID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first_name, admission_no and class_id are required"})
		return
	}

	if err := h.studentService.Create(c.Request.Context(), &student, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student.ToResponse()})
}

// @Summary Update Student
// @Description Updates a student's record
// @Tags Students
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Param request body models.Student true "Student data"
// @Success 200 {object} models.StudentResponse
// @Security BearerAuth
// @Router /students/{student_id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)
	student, err := h.studentService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	if err := BindNestedOrFlat(c, "student", student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student.ID = uint(id)

	if err := h.studentService.Update(c.Request.Context(), student, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student.ToResponse()})
}

type MarkLeftRequest struct {
	LeftAt string `json:"left_at"`
}

// @Summary Mark Student Left
// @Description Records that a student has left the school. Existing ledger accounts remain intact.
// @Tags Students
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Param request body MarkLeftRequest true "Departure date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} models.StudentResponse
// @Security BearerAuth
// @Router /students/{student_id}/mark_left [post]
func (h *StudentHandler) MarkLeft(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)

	var req MarkLeftRequest
	_ = c.ShouldBindJSON(&req)

	leftAt := time.Now()
	if req.LeftAt != "" {
		parsed, err := time.Parse("2006-01-02", req.LeftAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "left_at must be YYYY-MM-DD"})
			return
		}
		leftAt = parsed
	}

	student, err := h.studentService.MarkLeft(c.Request.Context(), uint(id), leftAt, middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student.ToResponse()})
}

// @Summary List Classes
// @Description Get all classes
// @Tags Students
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /classes [get]
func (h *StudentHandler) Classes(c *gin.Context) {
	classes, err := h.studentService.ListClasses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// @Summary Create Class
// @Description Creates a new class
// @Tags Students
// @Accept json
// @Produce json
// @Param request body models.Class true "Class data"
// @Success 201 {object} models.Class
// @Security BearerAuth
// @Router /classes [post]
func (h *StudentHandler) CreateClass(c *gin.Context) {
	var class models.Class
	if err := BindNestedOrFlat(c, "class", &class); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if class.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := h.studentService.CreateClass(c.Request.Context(), &class, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"class": class})
}
