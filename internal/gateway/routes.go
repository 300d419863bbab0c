package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/store"
)

// Handler returns the HTTP handler serving health, the WebSocket endpoint
// and the REST API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Use(s.requireAdmin)

		r.Route("/modules", func(r chi.Router) {
			r.Get("/", s.apiListModules)
			r.Post("/", s.apiCreateModule)
			r.Post("/{id}/toggle", s.apiToggleModule)
			r.Delete("/{id}", s.apiDeleteModule)
		})
		r.Route("/hooks", func(r chi.Router) {
			r.Get("/", s.apiListHooks)
			r.Post("/", s.apiCreateHook)
			r.Put("/{id}", s.apiUpdateHook)
			r.Post("/{id}/toggle", s.apiToggleHook)
			r.Get("/{code}/listeners", s.apiHookListeners)
		})
		r.Route("/module-hooks", func(r chi.Router) {
			r.Get("/", s.apiListModuleHooks)
			r.Post("/", s.apiCreateModuleHook)
			r.Get("/{id}", s.apiGetModuleHook)
			r.Put("/{id}", s.apiUpdateModuleHook)
			r.Delete("/{id}", s.apiDeleteModuleHook)
			r.Post("/{id}/toggle", s.apiToggleModuleHook)
			r.Post("/{id}/position", s.apiMoveModuleHook)
		})
		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", s.apiListCoupons)
			r.Get("/{code}", s.apiGetCoupon)
			r.Put("/{code}", s.apiSaveCoupon)
		})
	})

	r.NotFound(handleNotFound)
	return withMiddleware(r, s.log, s.cfg.Gateway.ControlUI.AllowedOrigins)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.admin == nil {
			writeJSON(w, http.StatusServiceUnavailable, ErrorShape{
				Code:    "unavailable",
				Message: "no database configured",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.CodeInvalidArgument, "invalid id: "+raw)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.CodeInvalidArgument, "invalid "+name+": "+raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxPayload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Wrap(domain.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// reply writes v with the given status, or the error.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

// --- modules ---

func (s *Server) apiListModules(w http.ResponseWriter, r *http.Request) {
	list, err := s.admin.ListModules(r.Context())
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) apiCreateModule(w http.ResponseWriter, r *http.Request) {
	var in admin.ModuleInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.admin.CreateModule(r.Context(), in)
	s.reply(w, r, http.StatusCreated, m, err)
}

func (s *Server) apiToggleModule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.admin.ToggleModule(r.Context(), id)
	s.reply(w, r, http.StatusOK, m, err)
}

func (s *Server) apiDeleteModule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.DeleteModule(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- hooks ---

func (s *Server) apiListHooks(w http.ResponseWriter, r *http.Request) {
	list, err := s.admin.ListHooks(r.Context())
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) apiCreateHook(w http.ResponseWriter, r *http.Request) {
	var in admin.HookInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.admin.CreateHook(r.Context(), in)
	s.reply(w, r, http.StatusCreated, h, err)
}

func (s *Server) apiUpdateHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p admin.HookPatch
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.admin.UpdateHook(r.Context(), id, p)
	s.reply(w, r, http.StatusOK, h, err)
}

func (s *Server) apiToggleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.admin.ToggleHook(r.Context(), id)
	s.reply(w, r, http.StatusOK, h, err)
}

func (s *Server) apiHookListeners(w http.ResponseWriter, r *http.Request) {
	list, err := s.admin.HookListeners(r.Context(), chi.URLParam(r, "code"))
	s.reply(w, r, http.StatusOK, list, err)
}

// --- module hooks ---

func (s *Server) apiListModuleHooks(w http.ResponseWriter, r *http.Request) {
	var f store.Filter
	var err error
	if f.ModuleID, err = queryID(r, "moduleId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.HookID, err = queryID(r, "hookId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.admin.ListModuleHooks(r.Context(), f)
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) apiGetModuleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.GetModuleHook(r.Context(), id)
	s.reply(w, r, http.StatusOK, mh, err)
}

func (s *Server) apiCreateModuleHook(w http.ResponseWriter, r *http.Request) {
	var in admin.ModuleHookInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.CreateModuleHook(r.Context(), in)
	s.reply(w, r, http.StatusCreated, mh, err)
}

func (s *Server) apiUpdateModuleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p admin.ModuleHookPatch
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.UpdateModuleHook(r.Context(), id, p)
	s.reply(w, r, http.StatusOK, mh, err)
}

func (s *Server) apiDeleteModuleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.DeleteModuleHook(r.Context(), id)
	s.reply(w, r, http.StatusOK, mh, err)
}

func (s *Server) apiToggleModuleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.ToggleModuleHook(r.Context(), id)
	s.reply(w, r, http.StatusOK, mh, err)
}

type positionBody struct {
	Mode     string `json:"mode"`
	Position int    `json:"position,omitempty"`
}

func (s *Server) apiMoveModuleHook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p positionBody
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	mh, err := s.admin.MoveModuleHook(r.Context(), id, p.Mode, p.Position)
	s.reply(w, r, http.StatusOK, mh, err)
}

// --- coupons ---

func (s *Server) apiListCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := s.admin.ListCoupons(r.Context())
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) apiGetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := s.admin.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	s.reply(w, r, http.StatusOK, c, err)
}

func (s *Server) apiSaveCoupon(w http.ResponseWriter, r *http.Request) {
	var c domain.Coupon
	if err := decodeBody(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.Code = chi.URLParam(r, "code")
	v, err := s.admin.SaveCoupon(r.Context(), c)
	s.reply(w, r, http.StatusOK, v, err)
}
