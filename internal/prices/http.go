package prices

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PriceDesk/pkg/kit"
)

const defaultSource = "demo-prices"

type Server struct {
	Service   *Service
	Log       *zap.Logger
	StaticDir string
	Limiter   *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/all-prices", s.allPrices)
		ar.Get("/price/{category}/{productId}", s.price)
		ar.Post("/estimate/pc", s.estimatePC)
		ar.Post("/estimate/laptop", s.estimateLaptop)

		ar.Group(func(mr chi.Router) {
			mr.Use(s.Limiter.Middleware)
			mr.Post("/update-prices", s.updatePrices)
			mr.Post("/add-component", s.addComponent)
			mr.Post("/delete-component", s.deleteComponent)
		})
	})

	r.Get("/", s.static("index.html"))
	r.Get("/admin", s.static("admin.html"))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "page not found", http.StatusNotFound)
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Service.Store().Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type allPricesResp struct {
	Prices    Catalog   `json:"prices"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
}

func (s *Server) allPrices(w http.ResponseWriter, r *http.Request) {
	c, digest := s.Service.Snapshot()

	if digest != "" {
		etag := `"` + digest + `"`
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	kit.WriteJSON(w, http.StatusOK, allPricesResp{
		Prices:    c,
		Timestamp: time.Now().UTC(),
		Status:    "success",
		Source:    c.Source(defaultSource),
	})
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	productID := chi.URLParam(r, "productId")

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"category":  category,
		"productId": productID,
		"price":     s.Service.Resolve(category, productID),
	})
}

type updateReq struct {
	Category  string   `json:"category"`
	ProductID string   `json:"productId"`
	Price     *float64 `json:"price"`
}

type addReq struct {
	Category    string   `json:"category"`
	ProductID   string   `json:"productId"`
	Price       *float64 `json:"price"`
	DisplayName string   `json:"displayName,omitempty"`
}

type deleteReq struct {
	Category  string `json:"category"`
	ProductID string `json:"productId"`
}

type component struct {
	Category    string  `json:"category"`
	ProductID   string  `json:"productId"`
	Price       float64 `json:"price"`
	DisplayName string  `json:"displayName"`
}

type mutationResp struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Component *component `json:"component,omitempty"`
}

func (s *Server) updatePrices(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	if err := kit.DecodeJSONLoose(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Category == "" || req.ProductID == "" || req.Price == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "category, productId, price required", nil)
		return
	}

	if _, err := s.Service.UpdateExisting(r.Context(), req.Category, req.ProductID, *req.Price); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, mutationResp{
		Success:   true,
		Message:   "price " + req.Category + "/" + req.ProductID + " updated to ₽" + formatPrice(*req.Price),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) addComponent(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSONLoose(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Category == "" || req.ProductID == "" || req.Price == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "category, productId, price required", nil)
		return
	}

	e, err := s.Service.AddComponent(r.Context(), req.Category, req.ProductID, *req.Price, req.DisplayName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, mutationResp{
		Success:   true,
		Message:   "component " + req.Category + "/" + req.ProductID + " added at ₽" + formatPrice(e.Price),
		Timestamp: time.Now().UTC(),
		Component: &component{
			Category:    req.Category,
			ProductID:   req.ProductID,
			Price:       e.Price,
			DisplayName: e.DisplayName,
		},
	})
}

func (s *Server) deleteComponent(w http.ResponseWriter, r *http.Request) {
	var req deleteReq
	if err := kit.DecodeJSONLoose(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Category == "" || req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "category, productId required", nil)
		return
	}

	if err := s.Service.DeleteComponent(r.Context(), req.Category, req.ProductID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, mutationResp{
		Success:   true,
		Message:   "component " + req.Category + "/" + req.ProductID + " deleted",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) estimatePC(w http.ResponseWriter, r *http.Request) {
	var b PCBuild
	if err := kit.DecodeJSON(w, r, &b); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	est, err := EstimatePC(s.Service.GetAll(), b)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, est)
}

func (s *Server) estimateLaptop(w http.ResponseWriter, r *http.Request) {
	var b LaptopBuild
	if err := kit.DecodeJSON(w, r, &b); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	est, err := EstimateLaptop(s.Service.GetAll(), b)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, est)
}

func (s *Server) static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.StaticDir == "" {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.StaticDir, name))
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrPersistence):
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to save prices", nil)
	default:
		s.logger().Error("catalog request failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
