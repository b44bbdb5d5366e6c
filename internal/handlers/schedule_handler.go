package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-api/internal/middleware"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// @Summary List Sessions
// @Description Get all academic sessions
// @Tags Schedules
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /sessions [get]
func (h *ScheduleHandler) Sessions(c *gin.Context) {
	sessions, err := h.scheduleService.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// @Summary Active Session
// @Description Get the currently active academic session
// @Tags Schedules
// @Produce json
// @Success 200 {object} models.Session
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/active [get]
func (h *ScheduleHandler) ActiveSession(c *gin.Context) {
	session, err := h.scheduleService.ActiveSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// @Summary Create Session
// @Description Creates a new academic session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body models.Session true "Session data"
// @Success 201 {object} models.Session
// @Security BearerAuth
// @Router /sessions [post]
func (h *ScheduleHandler) CreateSession(c *gin.Context) {
	var session models.Session
	if err := BindNestedOrFlat(c, "session", &session); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if session.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := h.scheduleService.CreateSession(c.Request.Context(), &session, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// @Summary List Fee Structures
// @Description Get fee structures for a session
// @Tags Schedules
// @Produce json
// @Param session_id query int true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fee_structures [get]
func (h *ScheduleHandler) FeeStructures(c *gin.Context) {
	sessionID, _ := strconv.ParseUint(c.Query("session_id"), 10, 32)
	structures, err := h.scheduleService.ListFeeStructures(c.Request.Context(), uint(sessionID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_structures": structures})
}

// @Summary Get Fee Structure
// @Description Get the fee structure for a class and session
// @Tags Schedules
// @Produce json
// @Param class_id path int true "Class ID"
// @Param session_id query int true "Session ID"
// @Success 200 {object} models.FeeStructure
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fee_structures/{class_id} [get]
func (h *ScheduleHandler) ShowFeeStructure(c *gin.Context) {
	classID, _ := strconv.ParseUint(c.Param("class_id"), 10, 32)
	sessionID, _ := strconv.ParseUint(c.Query("session_id"), 10, 32)

	fs, err := h.scheduleService.FindFeeStructure(c.Request.Context(), uint(classID), uint(sessionID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fee structure not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_structure": fs, "annual_total": fs.AnnualTotal()})
}

// @Summary Save Fee Structure
// @Description Creates or updates the fee structure for a class and session. Existing obligations are not recalculated.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body models.FeeStructure true "Fee structure data"
// @Success 200 {object} models.FeeStructure
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fee_structures [put]
func (h *ScheduleHandler) SaveFeeStructure(c *gin.Context) {
	var fs models.FeeStructure
	if err := BindNestedOrFlat(c, "fee_structure", &fs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fs.ClassID == 0 || fs.SessionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_id and session_id are required"})
		return
	}

	if err := h.scheduleService.SaveFeeStructure(c.Request.Context(), &fs, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_structure": fs, "annual_total": fs.AnnualTotal()})
}

// @Summary List Transport Fee Structures
// @Description Get transport fee structures for a session
// @Tags Schedules
// @Produce json
// @Param session_id query int true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /transport_fee_structures [get]
func (h *ScheduleHandler) TransportFeeStructures(c *gin.Context) {
	sessionID, _ := strconv.ParseUint(c.Query("session_id"), 10, 32)
	structures, err := h.scheduleService.ListTransportFeeStructures(c.Request.Context(), uint(sessionID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transport_fee_structures": structures})
}

// @Summary Save Transport Fee Structure
// @Description Creates or updates the transport fee for a class and session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body models.TransportFeeStructure true "Transport fee data"
// @Success 200 {object} models.TransportFeeStructure
// @Security BearerAuth
// @Router /transport_fee_structures [put]
func (h *ScheduleHandler) SaveTransportFeeStructure(c *gin.Context) {
	var fs models.TransportFeeStructure
	if err := BindNestedOrFlat(c, "transport_fee_structure", &fs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fs.ClassID == 0 || fs.SessionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_id and session_id are required"})
		return
	}

	if err := h.scheduleService.SaveTransportFeeStructure(c.Request.Context(), &fs, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transport_fee_structure": fs})
}
