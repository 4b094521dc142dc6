// asesor HTTP API - exposes the advisory conversation over REST.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"asesor/internal/advisor"
	"asesor/internal/app"
	"asesor/internal/catalog"
	"asesor/internal/config"
)

// sessionManager maps session ids to advisors, one conversation each.
type sessionManager struct {
	mu       sync.Mutex
	app      *app.App
	cfg      *config.Config
	sessions map[string]*advisor.Advisor
}

func newSessionManager(application *app.App, cfg *config.Config) *sessionManager {
	return &sessionManager{
		app:      application,
		cfg:      cfg,
		sessions: make(map[string]*advisor.Advisor),
	}
}

// get returns the advisor for a session, creating one when the id is
// empty or unknown. Unknown ids are first looked up in the session
// store, so a conversation survives a server restart. The returned id
// is authoritative.
func (sm *sessionManager) get(sessionID string) (string, *advisor.Advisor) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sessionID != "" {
		if adv, ok := sm.sessions[sessionID]; ok {
			return sessionID, adv
		}
		if sm.app.Store != nil {
			if conv, err := sm.app.Store.Load(sessionID); err == nil {
				adv := sm.app.NewAdvisor(sm.cfg)
				adv.Engine().Resume(conv)
				sm.sessions[sessionID] = adv
				return sessionID, adv
			}
		}
	}
	adv := sm.app.NewAdvisor(sm.cfg)
	id := adv.Engine().Conversation().SessionID
	sm.sessions[id] = adv
	return id, adv
}

func (sm *sessionManager) lookup(sessionID string) (*advisor.Advisor, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	adv, ok := sm.sessions[sessionID]
	return adv, ok
}

func main() {
	configPath := flag.String("config", "", "path to config.toml (default ~/.asesor/config.toml)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application, err := app.Build(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer application.Close()

	sm := newSessionManager(application, cfg)

	r := gin.Default()
	registerRoutes(r, sm, application)

	log.Printf("asesor API listening on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}

func registerRoutes(r *gin.Engine, sm *sessionManager, application *app.App) {
	api := r.Group("/api")

	// POST /api/chat runs one advisory turn. Omitting session_id starts
	// a new conversation.
	api.POST("/chat", func(c *gin.Context) {
		var req struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, adv := sm.get(req.SessionID)
		result, err := adv.Process(c.Request.Context(), req.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": id, "turn": result})
	})

	// POST /api/search-results injects externally sourced products.
	api.POST("/search-results", func(c *gin.Context) {
		var req struct {
			SessionID string            `json:"session_id" binding:"required"`
			Products  []catalog.Product `json:"products"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		adv, ok := sm.lookup(req.SessionID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": req.SessionID,
			"turn":       adv.InjectResults(req.Products),
		})
	})

	// GET /api/sessions/:id/state reports the conversation state.
	api.GET("/sessions/:id/state", func(c *gin.Context) {
		adv, ok := sm.lookup(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": c.Param("id"),
			"state":      adv.CurrentState(),
		})
	})

	// GET /api/sessions/:id/profile returns the requirements profile.
	api.GET("/sessions/:id/profile", func(c *gin.Context) {
		adv, ok := sm.lookup(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": c.Param("id"),
			"profile":    adv.Profile(),
			"summary":    adv.Profile().Summary(),
		})
	})

	// POST /api/sessions/:id/reset starts the conversation over in
	// place, keeping the session id slot.
	api.POST("/sessions/:id/reset", func(c *gin.Context) {
		adv, ok := sm.lookup(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		adv.Reset()
		c.JSON(http.StatusOK, gin.H{
			"session_id": c.Param("id"),
			"state":      adv.CurrentState(),
			"welcome":    adv.WelcomeMessage(),
		})
	})

	// GET /api/sessions lists persisted sessions, most recent first.
	api.GET("/sessions", func(c *gin.Context) {
		if application.Store == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence disabled"})
			return
		}
		sessions, err := application.Store.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	})

	// GET /api/sessions/:id/export renders a stored transcript as markdown.
	api.GET("/sessions/:id/export", func(c *gin.Context) {
		if application.Store == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence disabled"})
			return
		}
		md, err := application.Store.ExportMarkdown(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
	})

	// GET /api/analytics summarizes recent searches.
	api.GET("/analytics", func(c *gin.Context) {
		summary, err := application.Advisor.Analytics()
		if err != nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}
