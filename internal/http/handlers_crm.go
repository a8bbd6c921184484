package http

import (
	"net/http"
	"strings"

	"secondbrain/internal/core"
	"secondbrain/internal/crm"
)

type projectRequest struct {
	Name        string            `json:"name"`
	CompanyName string            `json:"companyName"`
	Description string            `json:"description"`
	Status      crm.ProjectStatus `json:"status"`
}

func (p projectRequest) params() crm.ProjectParams {
	return crm.ProjectParams{
		Name:        sanitizeInput(p.Name),
		CompanyName: sanitizeInput(p.CompanyName),
		Description: sanitizeInput(p.Description),
		Status:      p.Status,
	}
}

type taskRequest struct {
	ProjectID   string         `json:"projectId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       core.Money     `json:"price"`
	Status      crm.TaskStatus `json:"status"`
}

func (t taskRequest) params() crm.TaskParams {
	return crm.TaskParams{
		ProjectID:   strings.TrimSpace(t.ProjectID),
		Title:       sanitizeInput(t.Title),
		Description: sanitizeInput(t.Description),
		Price:       t.Price,
		Status:      t.Status,
	}
}

type subtaskRequest struct {
	Title          string        `json:"title"`
	CompletionTime *crm.Duration `json:"completionTime"`
}

// respond writes v after a successful tracker mutation.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	NewJSONResponse().Status(status).Data(v).Write(w)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Tracker.Projects()).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Tracker.Project(pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Tracker.AddProject(r.Context(), req.params())
	s.respond(w, r, http.StatusCreated, p, err)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Tracker.UpdateProject(r.Context(), pathID(r, "id"), req.params())
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusNoContent, nil, s.svc.Tracker.DeleteProject(r.Context(), pathID(r, "id")))
}

func (s *Server) handleToggleArchive(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Tracker.ToggleArchive(r.Context(), pathID(r, "id"))
	s.respond(w, r, http.StatusOK, p, err)
}

// handleListTasks lists every task, or those of one project when projectId
// is given.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Tracker.Tasks(strings.TrimSpace(r.URL.Query().Get("projectId")))).Write(w)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.Tracker.Task(pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(task).Write(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.Tracker.AddTask(r.Context(), req.params())
	s.respond(w, r, http.StatusCreated, task, err)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.Tracker.UpdateTask(r.Context(), pathID(r, "id"), req.params())
	s.respond(w, r, http.StatusOK, task, err)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusNoContent, nil, s.svc.Tracker.DeleteTask(r.Context(), pathID(r, "id")))
}

// handleCompleteTask takes the time spent as {"hours": h, "minutes": m}.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var spent crm.Duration
	if err := decodeJSON(w, r, &spent); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.Tracker.CompleteTask(r.Context(), pathID(r, "id"), spent)
	s.respond(w, r, http.StatusOK, task, err)
}

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.svc.Tracker.AddSubtask(r.Context(), pathID(r, "id"), sanitizeInput(req.Title))
	s.respond(w, r, http.StatusCreated, sub, err)
}

func (s *Server) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.svc.Tracker.UpdateSubtask(r.Context(), pathID(r, "id"), pathID(r, "subtaskID"),
		sanitizeInput(req.Title), req.CompletionTime)
	s.respond(w, r, http.StatusOK, sub, err)
}

func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Tracker.DeleteSubtask(r.Context(), pathID(r, "id"), pathID(r, "subtaskID"))
	s.respond(w, r, http.StatusNoContent, nil, err)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Tracker.Summary()).Write(w)
}

// handleReport builds the work report for startDate..endDate (YYYY-MM-DD,
// both inclusive).
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.svc.Tracker.Report(rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(report).Write(w)
}
