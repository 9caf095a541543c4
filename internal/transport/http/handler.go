package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"quizhost-service/internal/app"
	"quizhost-service/internal/auth"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/metrics"
)

// Handler wires the quiz use cases into a REST surface. Submission accepts
// the uid only from the verified identity token, never from the request
// body.
type Handler struct {
	catalog     *app.Catalog
	reader      app.CatalogReader
	organiser   *app.Organiser
	ledger      *app.Ledger
	leaderboard *app.Leaderboard
	identity    auth.Identity
	hub         *LeaderboardHub
	log         *logrus.Logger
	metrics     *metrics.Metrics
}

type Deps struct {
	Catalog     *app.Catalog
	Reader      app.CatalogReader
	Organiser   *app.Organiser
	Ledger      *app.Ledger
	Leaderboard *app.Leaderboard
	Identity    auth.Identity
	Hub         *LeaderboardHub
	Log         *logrus.Logger
	Metrics     *metrics.Metrics
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		catalog:     deps.Catalog,
		reader:      deps.Reader,
		organiser:   deps.Organiser,
		ledger:      deps.Ledger,
		leaderboard: deps.Leaderboard,
		identity:    deps.Identity,
		hub:         deps.Hub,
		log:         deps.Log,
		metrics:     deps.Metrics,
	}
}

// Routes builds the router with logging/metrics middleware applied.
func (h *Handler) Routes(gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(h.log, h.metrics))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/quizzes", h.listActive).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/link/{code}", h.getByLinkCode).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{id}", h.deleteQuiz).Methods(http.MethodDelete)
	v1.HandleFunc("/quizzes/{id}/active", h.setActive).Methods(http.MethodPatch)
	v1.HandleFunc("/quizzes/{id}/visibility", h.migrateVisibility).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{id}/questions", h.addQuestion).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{id}/questions/{qid}", h.updateQuestion).Methods(http.MethodPut)
	v1.HandleFunc("/quizzes/{id}/questions/{qid}", h.deleteQuestion).Methods(http.MethodDelete)
	v1.HandleFunc("/quizzes/{id}/attempts", h.submitAttempt).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{id}/attempts/me", h.myResult).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{id}/leaderboard", h.getLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{id}/leaderboard/ws", h.hub.ServeWS)
	v1.HandleFunc("/organiser/quizzes", h.listByOrganiser).Methods(http.MethodGet)
	return r
}

// questionView is the participant-facing question shape: the stored answer
// never leaves the server.
type questionView struct {
	ID      string              `json:"id"`
	Text    string              `json:"text"`
	Type    domain.QuestionType `json:"type"`
	Options []string            `json:"options,omitempty"`
	Points  int                 `json:"points"`
}

type quizView struct {
	Quiz      domain.Quiz    `json:"quiz"`
	Questions []questionView `json:"questions"`
}

func toQuizView(resolved domain.QuizWithQuestions) quizView {
	questions := make([]questionView, 0, len(resolved.Questions))
	for _, q := range resolved.Questions {
		questions = append(questions, questionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Options: q.Options,
			Points:  q.PointValue(),
		})
	}
	return quizView{Quiz: resolved.Quiz, Questions: questions}
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) listByOrganiser(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	quizzes, err := h.catalog.ListByOrganiser(r.Context(), principal.UID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var input app.CreateQuizInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}
	quiz, err := h.organiser.CreateQuiz(r.Context(), principal.UID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.reader.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toQuizView(resolved))
}

func (h *Handler) getByLinkCode(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.catalog.GetByLinkCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toQuizView(resolved))
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.organiser.DeleteQuiz(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.organiser.SetActive(r.Context(), mux.Vars(r)["id"], body.Active); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) migrateVisibility(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	var body struct {
		Visibility domain.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}
	quiz, err := h.organiser.MigrateVisibility(r.Context(), mux.Vars(r)["id"], body.Visibility)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}
	created, err := h.organiser.AddQuestion(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}
	vars := mux.Vars(r)
	q.ID = vars["qid"]
	if err := h.organiser.UpdateQuestion(r.Context(), vars["id"], q); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		h.writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.organiser.DeleteQuestion(r.Context(), vars["id"], vars["qid"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var body struct {
		Answers   map[string]string `json:"answers"`
		TimeTaken int               `json:"timeTaken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.ErrInvalidInput)
		return
	}

	attempt, err := h.ledger.Submit(r.Context(), app.Submission{
		QuizID:    mux.Vars(r)["id"],
		UID:       principal.UID,
		Answers:   body.Answers,
		TimeTaken: body.TimeTaken,
	})
	if err != nil {
		h.metrics.AttemptsSubmitted.WithLabelValues("error").Inc()
		h.writeError(w, err)
		return
	}
	h.metrics.AttemptsSubmitted.WithLabelValues("ok").Inc()
	h.hub.Broadcast(r.Context(), attempt.QuizID)
	h.writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) myResult(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	attempt, err := h.ledger.Result(r.Context(), mux.Vars(r)["id"], principal.UID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Rank(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) authenticate(r *http.Request) (auth.Principal, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header && header != "" {
		return auth.Principal{}, domain.ErrUnauthenticated
	}
	return h.identity.Authenticate(r.Context(), token)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.WithError(err).Error("write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidUID):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
