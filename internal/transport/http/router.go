package http

import (
	"net/http"

	"exam-service/internal/app"
	"exam-service/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// API exposes the catalog, question bank and attempt flow over HTTP.
type API struct {
	catalog  *app.ExamCatalog
	bank     *app.QuestionBank
	attempts *app.AttemptService
	recorder *app.AttemptRecorder
	auth     *identity.Service
	upgrader websocket.Upgrader
}

func NewAPI(catalog *app.ExamCatalog, bank *app.QuestionBank, attempts *app.AttemptService, recorder *app.AttemptRecorder, auth *identity.Service) *API {
	return &API{
		catalog:  catalog,
		bank:     bank,
		attempts: attempts,
		recorder: recorder,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the HTTP handler tree.
func (a *API) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/api/login", a.login)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)
		r.Route("/api/exams", func(r chi.Router) {
			r.Get("/", a.listExams)
			r.Post("/", a.createExam)
			r.Route("/{examID}", func(r chi.Router) {
				r.Get("/", a.getExam)
				r.Delete("/", a.removeExam)
				r.Get("/questions", a.listQuestions)
				r.Post("/questions", a.addQuestion)
				r.Get("/answers/me", a.myAnswers)
			})
		})
		r.Get("/ws/exams/{examID}/attempt", a.serveAttempt)
	})
	return r
}
