package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/handler"
	"github.com/xndadelin/Grosharing/internal/middleware"
	"github.com/xndadelin/Grosharing/internal/push"
	"github.com/xndadelin/Grosharing/internal/storage"
	"github.com/xndadelin/Grosharing/internal/store"
	ws "github.com/xndadelin/Grosharing/internal/websocket"
)

// Config carries the collaborators a Server cannot build from the database.
type Config struct {
	// Sessions signs and verifies the server's own session tokens.
	Sessions *auth.JWT
	// Provider verifies identity-provider tokens presented at sign-in.
	Provider *auth.JWT
	Images   *storage.Images
	// Notifier delivers push notifications. Nil disables push.
	Notifier push.Notifier
	// VAPIDPublicKey is handed to browsers that register for web push.
	VAPIDPublicKey string

	CORSAllowedOrigins []string
	WSOriginPatterns   []string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	houseH        *handler.HouseHandler
	groceryH      *handler.GroceryHandler
	budgetH       *handler.BudgetHandler
	messageH      *handler.MessageHandler
	imageH        *handler.ImageHandler
	pushH         *handler.PushHandler
	sessions      *auth.JWT
	sessionStore  *store.SessionStore
	houseStore    *store.HouseStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	corsOrigins   []string
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	houseStore := store.NewHouseStore(db)
	neighborStore := store.NewNeighborStore(db)
	groceryStore := store.NewGroceryStore(db)
	budgetStore := store.NewBudgetStore(db)
	messageStore := store.NewMessageStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	var pushSched *push.Scheduler
	if cfg.Notifier != nil {
		pushSched = push.NewScheduler(cfg.Notifier, pushStore, budgetStore, groceryStore, neighborStore, logger.With("component", "push"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, cfg.Sessions, cfg.Provider, logger.With("component", "auth")),
		houseH:        handler.NewHouseHandler(houseStore, neighborStore, cfg.Notifier, logger.With("component", "house")),
		groceryH:      handler.NewGroceryHandler(groceryStore, neighborStore, cfg.Notifier, logger.With("component", "grocery")),
		budgetH:       handler.NewBudgetHandler(budgetStore, neighborStore, logger.With("component", "budget")),
		messageH:      handler.NewMessageHandler(houseStore, messageStore, neighborStore, hub, cfg.WSOriginPatterns, logger.With("component", "chat")),
		imageH:        handler.NewImageHandler(cfg.Images, logger.With("component", "images")),
		pushH:         handler.NewPushHandler(cfg.VAPIDPublicKey),
		sessions:      cfg.Sessions,
		sessionStore:  sessionStore,
		houseStore:    houseStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		corsOrigins:   cfg.CORSAllowedOrigins,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// HouseStore returns the house store for password bootstrap.
func (s *Server) HouseStore() *store.HouseStore {
	return s.houseStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the budget alert scheduler, or nil when push is
// disabled.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// Hub returns the chat insert hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /auth/session", s.rateLimitedHandler(s.authH.CreateSession))
	outerMux.HandleFunc("GET /images/{path...}", s.imageH.Get)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessions, s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	h := middleware.CORS(s.corsOrigins)(outerMux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "database unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.KeyByIPAndPath, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("GET /auth/user", s.authH.CurrentUser)
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)

	// Houses and roster
	mux.HandleFunc("GET /api/houses", s.houseH.List)
	mux.HandleFunc("GET /api/houses/{house}", s.houseH.Get)
	mux.HandleFunc("POST /api/houses/{house}/join", s.rateLimitedHandler(s.houseH.Join))
	mux.HandleFunc("GET /api/houses/{house}/neighbors", s.houseH.ListNeighbors)
	mux.HandleFunc("PUT /api/houses/{house}/push-token", s.houseH.SetPushToken)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	// Grocery items
	mux.HandleFunc("GET /api/houses/{house}/items", s.groceryH.ListItems)
	mux.HandleFunc("POST /api/houses/{house}/items", s.groceryH.CreateItem)
	mux.HandleFunc("PATCH /api/items/{id}/completion", s.groceryH.SetCompletion)

	// Budget
	mux.HandleFunc("GET /api/houses/{house}/budget", s.budgetH.Get)
	mux.HandleFunc("PUT /api/houses/{house}/budget", s.budgetH.Put)

	// Chat
	mux.HandleFunc("GET /api/chats/{house_id}/messages", s.messageH.List)
	mux.HandleFunc("POST /api/chats/{house_id}/messages", s.messageH.Create)
	mux.HandleFunc("GET /api/chats/{house_id}/ws", s.messageH.Feed)

	// Images
	mux.HandleFunc("POST /api/images", s.imageH.Upload)
	mux.HandleFunc("DELETE /api/images/{path...}", s.imageH.Delete)
}
