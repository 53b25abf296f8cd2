package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"lostlink/internal/storage"
	"lostlink/internal/store"
	"lostlink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger *logrus.Logger
	config *types.Config

	items         *store.ItemRepository
	claims        *store.ClaimRepository
	users         *store.UserRepository
	audits        *store.AuditRepository
	notifications *store.NotificationRepository

	objects *storage.ObjectStorage

	cookie     *securecookie.SecureCookie
	signingKey []byte

	jwksCache *jwk.Cache
	jwksURL   string

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	items *store.ItemRepository,
	claims *store.ClaimRepository,
	users *store.UserRepository,
	audits *store.AuditRepository,
	notifications *store.NotificationRepository,
	objects *storage.ObjectStorage,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	signingKey, err := base64.StdEncoding.DecodeString(config.TokenSigningKey)
	if err != nil {
		return nil, fmt.Errorf("decode token signing key: %w", err)
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("set TOKEN_SIGNING_KEY")
	}

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger: logger,
		config: config,
		cookie: securecookie.New(hashKey, blockKey),

		items:         items,
		claims:        claims,
		users:         users,
		audits:        audits,
		notifications: notifications,

		objects: objects,

		signingKey: signingKey,
		jwksCache:  jwkCache,
		jwksURL:    jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/api/auth/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/api/auth/register", s.handleRegister, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/items/report", s.handleReportItem, http.MethodPost)
		r.HandleFunc("/api/items/feed", s.handleItemFeed, http.MethodGet)
		r.HandleFunc("/api/items/found", s.handleFoundItems, http.MethodGet)
		r.HandleFunc("/api/items/my-requests", s.handleMyRequests, http.MethodGet)

		r.HandleFunc("/api/claims/submit", s.handleSubmitClaim, http.MethodPost)
		r.HandleFunc("/api/claims/my-claims", s.handleMyClaims, http.MethodGet)

		r.HandleFunc("/api/notifications/me", s.handleMyNotifications, http.MethodGet)
		r.HandleFunc("/api/notifications/:id/read", s.handleMarkMyNotificationRead, http.MethodPut)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/api/items/lost", s.handleLostItems, http.MethodGet)
			r.HandleFunc("/api/items/:id/status", s.handleOverrideItemStatus, http.MethodPut)

			r.HandleFunc("/api/claims/status", s.handleClaimsByStatus, http.MethodGet)
			r.HandleFunc("/api/claims/item/:id", s.handleClaimsForItem, http.MethodGet)
			r.HandleFunc("/api/claims/:id/verify", s.handleVerifyClaim, http.MethodPut)

			r.HandleFunc("/api/admin/stats/dashboard", s.handleDashboardStats, http.MethodGet)
			r.HandleFunc("/api/admin/stats/category-breakdown", s.handleCategoryBreakdown, http.MethodGet)
			r.HandleFunc("/api/admin/stats/recovery-rate", s.handleRecoveryRate, http.MethodGet)

			r.HandleFunc("/api/admin/items/search", s.handleSearchItems, http.MethodGet)
			r.HandleFunc("/api/admin/items/matches", s.handleItemMatches, http.MethodGet)
			r.HandleFunc("/api/admin/items/:id/assign-storage", s.handleAssignStorage, http.MethodPut)
			r.HandleFunc("/api/admin/items/:id/handover", s.handleHandoverItem, http.MethodPost)
			r.HandleFunc("/api/admin/items/:id/archive", s.handleArchiveItem, http.MethodPost)
			r.HandleFunc("/api/admin/items/:id/dispose", s.handleDisposeItem, http.MethodPost)
			r.HandleFunc("/api/admin/items/:id/link", s.handleLinkItems, http.MethodPut)

			r.HandleFunc("/api/admin/broadcast", s.handleBroadcast, http.MethodPost)
			r.HandleFunc("/api/admin/notification-trigger", s.handleNotificationTrigger, http.MethodPost)
			r.HandleFunc("/api/admin/notifications", s.handleAdminNotifications, http.MethodGet)
			r.HandleFunc("/api/admin/notifications/:id/read", s.handleMarkAdminNotificationRead, http.MethodPut)

			r.HandleFunc("/api/admin/audit-log", s.handleCreateAuditLog, http.MethodPost)
			r.HandleFunc("/api/admin/audit-logs", s.handleAuditLogs, http.MethodGet)

			r.HandleFunc("/api/admin/profile", s.handleAdminProfile, http.MethodGet)
			r.HandleFunc("/api/admin/login-history", s.handleLoginHistory, http.MethodGet)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
