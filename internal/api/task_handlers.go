package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Isingizwe12/taskboard/internal/mesh"
	"github.com/Isingizwe12/taskboard/internal/task"
)

// CreateTask handles POST /api/tasks.
func (s *Server) CreateTask(c *gin.Context) {
	var req task.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	created, err := s.Store.CreateTask(c.Request.Context(), req.Task())
	if err != nil {
		s.Logger.Error("create task failed", "err", err, "request_id", c.GetString("requestID"))
		respondError(c, http.StatusInternalServerError, "Error creating task", err)
		return
	}
	s.publish(c, mesh.TopicTaskCreated, created)
	c.JSON(http.StatusCreated, created)
}

// ListTasks handles GET /api/tasks?userEmail=...
func (s *Server) ListTasks(c *gin.Context) {
	email := c.Query("userEmail")
	if email == "" {
		respondError(c, http.StatusBadRequest, "Missing userEmail", nil)
		return
	}
	tasks, err := s.Store.ListTasks(c.Request.Context(), email)
	if err != nil {
		s.Logger.Error("list tasks failed", "err", err, "request_id", c.GetString("requestID"))
		respondError(c, http.StatusInternalServerError, "Error fetching tasks", err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// PatchTask handles PATCH /api/tasks/:id. The body is merged into the record.
func (s *Server) PatchTask(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "Task id missing", nil)
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	patch, err := task.ParsePatch(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	updated, err := s.Store.PatchTask(c.Request.Context(), id, patch)
	if err != nil {
		s.Logger.Error("update task failed", "id", id, "err", err, "request_id", c.GetString("requestID"))
		respondError(c, http.StatusInternalServerError, "Failed to update task", err)
		return
	}
	s.publish(c, mesh.TopicTaskUpdated, updated)
	c.JSON(http.StatusOK, PatchResponse{Message: "Task updated", Task: updated})
}

// DeleteTask handles DELETE /api/tasks/:id.
func (s *Server) DeleteTask(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "Task id missing", nil)
		return
	}
	s.Logger.Debug("deleting task", "id", id)
	if err := s.Store.DeleteTask(c.Request.Context(), id); err != nil {
		s.Logger.Error("delete task failed", "id", id, "err", err, "request_id", c.GetString("requestID"))
		respondError(c, http.StatusInternalServerError, "Failed to delete task", err)
		return
	}
	s.publish(c, mesh.TopicTaskDeleted, gin.H{"id": id})
	c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted"})
}

func (s *Server) publish(c *gin.Context, topic string, payload any) {
	if s.Bus == nil {
		return
	}
	e, err := mesh.NewEvent(topic, payload)
	if err == nil {
		err = s.Bus.Publish(c.Request.Context(), e)
	}
	if err != nil {
		s.Logger.Warn("publish task event failed", "topic", topic, "err", err)
	}
}
