package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"kicker/internal/back"
	"kicker/internal/util"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/matches", s.createMatch)
		r.Get("/matches", s.getMatches)
		r.Get("/match/{id}", s.getMatch)
		r.Delete("/match/{id}", s.deleteMatch)

		r.Post("/players", s.createPlayer)
		r.Get("/players", s.getLeaderboard)
		r.Get("/player/{id}/matches", s.getPlayerMatches)
		r.Get("/player/{id}/ratings", s.getPlayerRatings)

		r.Post("/teams", s.findOrCreateTeam)
		r.Get("/team/{id}/matches", s.getTeamMatches)
		r.Get("/team/{id}/ratings", s.getTeamRatings)
	})

	return r
}

type Server struct {
	http *http.Server
	back *back.Back
}

func NewServer(back *back.Back, listenAddr string) *Server {
	s := &Server{
		back: back,
	}

	s.http = &http.Server{
		Addr:         listenAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Println("info: starting HTTP server")
	wg.Add(1)
	defer wg.Done()

	go func() {
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	if err := s.http.Close(); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

// domainError maps core error kinds to status codes. Partial settlements
// get a body that names the orphaned match and never reads as a success.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	log.Printf("error: %s", err)

	var partial back.ErrPartialSettlement
	if errors.As(err, &partial) {
		s.response(w, http.StatusInternalServerError, map[string]interface{}{
			"Error":   "the match was recorded but its rating updates did not all apply, contact an operator",
			"MatchID": partial.MatchID,
		})
		return
	}

	switch {
	case errors.Is(err, back.ErrValidation("")):
		s.response(w, http.StatusUnprocessableEntity, errorBody(err))
	case errors.Is(err, back.ErrNotFound("")):
		s.response(w, http.StatusNotFound, errorBody(err))
	case errors.Is(err, back.ErrConflict("")):
		s.response(w, http.StatusConflict, errorBody(err))
	case errors.Is(err, util.ErrPublic("")):
		s.response(w, http.StatusBadRequest, errorBody(err))
	default:
		s.response(w, http.StatusInternalServerError, map[string]string{
			"Error": "internal error",
		})
	}
}

func errorBody(err error) map[string]string {
	return map[string]string{"Error": err.Error()}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.response(w, http.StatusBadRequest, map[string]string{"Error": msg})
}

// urlUUID parses the {id} URL parameter of the current route.
func urlUUID(r *http.Request) (util.UUIDAsBlob, error) {
	return util.ParseUUIDAsBlob(chi.URLParam(r, "id"))
}
