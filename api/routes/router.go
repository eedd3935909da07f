package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coldrackhq/coldrack-backend/api/controllers"
	"github.com/coldrackhq/coldrack-backend/api/middleware"
	"github.com/coldrackhq/coldrack-backend/internal/auth"
	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/imports"
	"github.com/coldrackhq/coldrack-backend/internal/inventory"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

type sessionManager interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router mounts. Grouped into a struct because
// the dashboard surface wires seven services plus infrastructure.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        pinger
	Redis     pinger
	Sessions  sessionManager
	Users     userLoader
	Auth      auth.Service
	Racks     racks.Service
	Catalog   catalog.Service
	UsersSvc  users.Service
	History   history.Service
	Imports   imports.Service
	Inventory inventory.Service
	Hub       *realtime.Hub
	// Origins accepted for websocket upgrades; defaults to the CORS list.
	Origins []string
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	if len(deps.Origins) == 0 {
		deps.Origins = middleware.DefaultOrigins()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Dashboard shell routes only pass the coarse cookie gate here; the
	// frontend deployment serves the real assets.
	r.Group(func(r chi.Router) {
		r.Use(middleware.EdgeGate)
		r.Get("/dashboard", shellPlaceholder)
		r.Get("/dashboard/{page}", shellPlaceholder)
		r.Get("/login", shellPlaceholder)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.Users, logg))
			r.Get("/me", controllers.AuthMe(deps.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.Users, logg))

		r.With(middleware.RequirePage(enums.PageDashboard, enums.AccessView, logg)).
			Get("/inventory", controllers.InventorySnapshot(deps.Inventory, logg))

		r.Route("/racks", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageRacks, enums.AccessView, logg))
				r.Get("/", controllers.RackList(deps.Racks, logg))
				r.Get("/{rackID}", controllers.RackGet(deps.Racks, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageRacks, enums.AccessEdit, logg))
				r.Post("/", controllers.RackCreate(deps.Racks, logg))
				r.Patch("/{rackID}", controllers.RackUpdate(deps.Racks, logg))
				r.Delete("/{rackID}", controllers.RackDelete(deps.Racks, logg))
				r.Post("/{rackID}/copy", controllers.RackCopy(deps.Racks, logg))
				r.Post("/{rackID}/move-line", controllers.RackMoveLine(deps.Racks, logg))
				r.Post("/move-product", controllers.RackMoveProduct(deps.Racks, logg))
				r.Post("/{rackID}/products", controllers.RackAddProduct(deps.Racks, logg))
				r.Patch("/{rackID}/products/{productID}", controllers.RackUpdateProduct(deps.Racks, logg))
				r.Post("/{rackID}/products/{productID}/outbound", controllers.RackOutboundProduct(deps.Racks, logg))
				r.Delete("/{rackID}/products/{productID}", controllers.RackRemoveProduct(deps.Racks, logg))
			})
		})

		r.Route("/product-codes", func(r chi.Router) {
			r.With(middleware.RequirePage(enums.PageProducts, enums.AccessView, logg)).
				Get("/", controllers.ProductCodeList(deps.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageProducts, enums.AccessEdit, logg))
				r.Post("/", controllers.ProductCodeCreate(deps.Catalog, logg))
				r.Patch("/{codeID}", controllers.ProductCodeUpdate(deps.Catalog, logg))
				r.Delete("/{codeID}", controllers.ProductCodeDelete(deps.Catalog, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.RequirePage(enums.PageProducts, enums.AccessView, logg)).
				Get("/", controllers.CategoryList(deps.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageProducts, enums.AccessEdit, logg))
				r.Post("/", controllers.CategoryCreate(deps.Catalog, logg))
				r.Patch("/{categoryID}", controllers.CategoryRename(deps.Catalog, logg))
				r.Delete("/{categoryID}", controllers.CategoryDelete(deps.Catalog, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageUsers, enums.AccessView, logg))
				r.Get("/", controllers.UserList(deps.UsersSvc, logg))
				r.Get("/{userID}", controllers.UserGet(deps.UsersSvc, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageUsers, enums.AccessEdit, logg))
				r.Post("/", controllers.UserCreate(deps.UsersSvc, logg))
				r.Patch("/{userID}", controllers.UserUpdate(deps.UsersSvc, logg))
				r.Delete("/{userID}", controllers.UserDelete(deps.UsersSvc, logg))
				r.Post("/{userID}/reset-password", controllers.UserResetPassword(deps.UsersSvc, logg))
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.With(middleware.RequirePage(enums.PageHistory, enums.AccessView, logg)).
				Get("/", controllers.HistoryList(deps.History, logg))
			r.With(middleware.RequirePage(enums.PageHistory, enums.AccessEdit, logg)).
				Post("/{recordID}/restore", controllers.HistoryRestore(deps.History, logg))
		})

		r.Route("/imports", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageRacks, enums.AccessEdit, logg))
				r.Post("/racks/preview", controllers.ImportRacksPreview(deps.Imports, cfg.Import, logg))
				r.Post("/racks/commit", controllers.ImportRacksCommit(deps.Imports, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePage(enums.PageProducts, enums.AccessEdit, logg))
				r.Post("/product-codes/preview", controllers.ImportProductCodesPreview(deps.Imports, cfg.Import, logg))
				r.Post("/product-codes/commit", controllers.ImportProductCodesCommit(deps.Imports, logg))
			})
		})

		r.Route("/exports", func(r chi.Router) {
			r.With(middleware.RequirePage(enums.PageRacks, enums.AccessView, logg)).
				Get("/racks/template", controllers.ExportRackTemplate(logg))
			r.With(middleware.RequirePage(enums.PageProducts, enums.AccessView, logg)).
				Get("/product-codes/template", controllers.ExportProductCodeTemplate(logg))
		})

		if deps.Hub != nil {
			r.Get("/realtime", controllers.ChangeStream(deps.Hub, deps.Origins, logg))
		}
	})

	return r
}

func shellPlaceholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!doctype html><html><body><div id=\"root\"></div></body></html>"))
}
