package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/metrics"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

type JournalHandler struct {
	service *app.Service
}

func NewJournalHandler(service *app.Service) *JournalHandler {
	return &JournalHandler{
		service: service,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Register mounts every journal route on mux.
func (h *JournalHandler) Register(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/lessons":               h.HandleListLessons,
		"POST /api/v1/lessons":              h.HandleCreateLesson,
		"GET /api/v1/lessons/{id}":          h.HandleGetLesson,
		"PATCH /api/v1/lessons/{id}/status": h.HandleSetLessonStatus,
		"DELETE /api/v1/lessons/{id}":       h.HandleDeleteLesson,

		"GET /api/v1/assignments":         h.HandleListAssignments,
		"POST /api/v1/assignments":        h.HandleCreateAssignment,
		"GET /api/v1/assignments/{id}":    h.HandleGetAssignment,
		"PATCH /api/v1/assignments/{id}":  h.HandleUpdateAssignment,
		"DELETE /api/v1/assignments/{id}": h.HandleDeleteAssignment,

		"GET /api/v1/grades":         h.HandleListGrades,
		"POST /api/v1/grades":        h.HandleRecordGrade,
		"GET /api/v1/grades/{id}":    h.HandleGetGrade,
		"PATCH /api/v1/grades/{id}":  h.HandleUpdateGrade,
		"DELETE /api/v1/grades/{id}": h.HandleDeleteGrade,

		"GET /api/v1/attendance":  h.HandleListAttendance,
		"POST /api/v1/attendance": h.HandleRecordAttendance,

		"GET /api/v1/journal":  h.HandleJournal,
		"GET /api/v1/averages": h.HandleAverages,

		"GET /api/v1/classes/{id}/grading-system": h.HandleGetGradingSystem,
		"PUT /api/v1/classes/{id}/grading-system": h.HandleSetGradingSystem,

		"GET /api/v1/subgroups":              h.HandleListSubgroups,
		"POST /api/v1/subgroups":             h.HandleCreateSubgroup,
		"PUT /api/v1/subgroups/{id}/members": h.HandleSetSubgroupMembers,
	}

	for pattern, fn := range routes {
		mux.Handle(pattern, h.wrap(pattern, fn))
	}
}

// wrap adds header checks, staff auth and request duration metrics.
func (h *JournalHandler) wrap(pattern string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				pattern,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()

		if !h.service.ValidateHeaders(r.Header) {
			http.Error(rec, "these are not the droids you are looking for", http.StatusNotFound)
			return
		}

		if err := h.service.ValidateAuth(r); err != nil {
			logger.Error.Printf("Auth failed: %v", err)
			http.Error(rec, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(rec, r)
	})
}

func (h *JournalHandler) HandleListLessons(w http.ResponseWriter, r *http.Request) {
	var filter models.LessonFilter
	var err error
	if filter.ClassID, err = queryID(r, "classId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.SubjectID, err = queryID(r, "subjectId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.TeacherID, err = queryID(r, "teacherId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.ID, err = queryID(r, "scheduleId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.SubgroupID, err = querySubgroup(r, "subgroupId"); err != nil {
		writeError(w, err)
		return
	}
	filter.DateFrom = r.URL.Query().Get("from")
	filter.DateTo = r.URL.Query().Get("to")

	lessons, err := h.service.Journal.ListLessons(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": nonNil(lessons)})
}

func (h *JournalHandler) HandleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var input models.NewLesson
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	lesson, err := h.service.Journal.CreateLesson(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (h *JournalHandler) HandleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lesson, err := h.service.Journal.GetLesson(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *JournalHandler) HandleSetLessonStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input struct {
		Status models.LessonStatus `json:"status"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	lesson, err := h.service.Journal.SetLessonStatus(r.Context(), id, input.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *JournalHandler) HandleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Journal.DeleteLesson(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JournalHandler) HandleListAssignments(w http.ResponseWriter, r *http.Request) {
	var filter models.AssignmentFilter
	var err error
	if filter.LessonID, err = queryID(r, "scheduleId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.ClassID, err = queryID(r, "classId"); err != nil {
		writeError(w, err)
		return
	}
	if filter.SubjectID, err = queryID(r, "subjectId"); err != nil {
		writeError(w, err)
		return
	}

	assignments, err := h.service.Journal.ListAssignments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": nonNil(assignments)})
}

func (h *JournalHandler) HandleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var input models.NewAssignment
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	assignment, err := h.service.Journal.CreateAssignment(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

func (h *JournalHandler) HandleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assignment, err := h.service.Journal.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *JournalHandler) HandleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.UpdateAssignment
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	assignment, err := h.service.Journal.UpdateAssignment(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// HandleDeleteAssignment answers 428 with the deletion plan unless the
// request carries confirm=true.
func (h *JournalHandler) HandleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		plan, err := h.service.Journal.PrepareAssignmentDeletion(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !plan.Exists {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusPreconditionRequired, plan)
		return
	}

	deleted, err := h.service.Journal.ConfirmAssignmentDeletion(r.Context(), journal.DeletionPlan{AssignmentID: id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignmentId":  id,
		"deletedGrades": deleted,
	})
}

func (h *JournalHandler) HandleListGrades(w http.ResponseWriter, r *http.Request) {
	var filter models.GradeFilter
	var err error
	for name, dst := range map[string]*int64{
		"classId":      &filter.ClassID,
		"subjectId":    &filter.SubjectID,
		"studentId":    &filter.StudentID,
		"scheduleId":   &filter.LessonID,
		"assignmentId": &filter.AssignmentID,
	} {
		if *dst, err = queryID(r, name); err != nil {
			writeError(w, err)
			return
		}
	}

	grades, err := h.service.Journal.ListGrades(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": nonNil(grades)})
}

func (h *JournalHandler) HandleRecordGrade(w http.ResponseWriter, r *http.Request) {
	var input models.NewGrade
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	grade, err := h.service.Journal.RecordGrade(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, grade)
}

func (h *JournalHandler) HandleGetGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	grade, err := h.service.Journal.GetGrade(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grade)
}

func (h *JournalHandler) HandleUpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.UpdateGrade
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	grade, err := h.service.Journal.UpdateGrade(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grade)
}

func (h *JournalHandler) HandleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Journal.DeleteGrade(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JournalHandler) HandleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var entries []models.AttendanceEntry
	if err := decodeBody(r, &entries); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.service.Journal.RecordAttendance(r.Context(), entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": records})
}

func (h *JournalHandler) HandleListAttendance(w http.ResponseWriter, r *http.Request) {
	lessonID, err := queryID(r, "scheduleId")
	if err != nil {
		writeError(w, err)
		return
	}
	if lessonID == 0 {
		writeError(w, badParam("scheduleId", "is required"))
		return
	}
	roster, err := queryIDs(r, "roster")
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.service.Journal.ListAttendance(r.Context(), lessonID, roster)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": nonNil(records)})
}

func (h *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	classID, err := queryID(r, "classId")
	if err != nil {
		writeError(w, err)
		return
	}
	subjectID, err := queryID(r, "subjectId")
	if err != nil {
		writeError(w, err)
		return
	}
	subgroup, err := querySubgroup(r, "subgroupId")
	if err != nil {
		writeError(w, err)
		return
	}
	var subgroupID int64
	if subgroup != nil {
		subgroupID = *subgroup
	}

	view, err := h.service.Journal.JournalView(r.Context(), classID, subjectID, subgroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	view.Lessons = nonNil(view.Lessons)
	view.Assignments = nonNil(view.Assignments)
	view.Grades = nonNil(view.Grades)
	writeJSON(w, http.StatusOK, view)
}

func (h *JournalHandler) HandleAverages(w http.ResponseWriter, r *http.Request) {
	var query journal.AveragesQuery
	var err error
	if query.ClassID, err = queryID(r, "classId"); err != nil {
		writeError(w, err)
		return
	}
	if query.SubjectID, err = queryID(r, "subjectId"); err != nil {
		writeError(w, err)
		return
	}
	if query.StudentID, err = queryID(r, "studentId"); err != nil {
		writeError(w, err)
		return
	}
	if query.SubgroupID, err = querySubgroup(r, "subgroupId"); err != nil {
		writeError(w, err)
		return
	}
	if p := r.URL.Query().Get("period"); p != "" {
		if query.Period, err = scoring.ParsePeriod(p); err != nil {
			writeError(w, badParam("period", err.Error()))
			return
		}
	}
	if y := r.URL.Query().Get("year"); y != "" {
		if query.AcademicYear, err = strconv.Atoi(y); err != nil || query.AcademicYear < 1900 {
			writeError(w, badParam("year", "must be the year the academic year starts in"))
			return
		}
	}

	averages, err := h.service.Journal.Averages(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, averages)
}

func (h *JournalHandler) HandleGetGradingSystem(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	system, err := h.service.Journal.GradingSystem(r.Context(), classID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ClassSettings{ClassID: classID, GradingSystem: string(system)})
}

func (h *JournalHandler) HandleSetGradingSystem(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input struct {
		GradingSystem string `json:"gradingSystem"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	settings, err := h.service.Journal.SetGradingSystem(r.Context(), classID, input.GradingSystem)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *JournalHandler) HandleListSubgroups(w http.ResponseWriter, r *http.Request) {
	classID, err := queryID(r, "classId")
	if err != nil {
		writeError(w, err)
		return
	}

	subgroups, err := h.service.Journal.ListSubgroups(r.Context(), classID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": nonNil(subgroups)})
}

func (h *JournalHandler) HandleCreateSubgroup(w http.ResponseWriter, r *http.Request) {
	var input models.NewSubgroup
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	subgroup, err := h.service.Journal.CreateSubgroup(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subgroup)
}

func (h *JournalHandler) HandleSetSubgroupMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input struct {
		StudentIDs []int64 `json:"studentIds"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	subgroup, err := h.service.Journal.SetSubgroupMembers(r.Context(), id, input.StudentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subgroup)
}

// nonNil keeps empty lists as [] in responses.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
