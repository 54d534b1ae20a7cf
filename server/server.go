// Package server provides the HTTP front end.
//
// Information Hiding:
// - Route layout and JSON shapes hidden behind Router()
// - Store/completion failures mapped to HTTP status codes in one place

package server

import (
	"github.com/gin-gonic/gin"

	"github.com/richinex/penelope/chat"
	"github.com/richinex/penelope/llm"
	"github.com/richinex/penelope/storage"
)

// Server holds the injected dependencies for the HTTP handlers. The chat
// endpoint uses the mini model variant; the interactive CLI uses the full
// model, and the two paths are independent.
type Server struct {
	manager  *chat.Manager
	store    storage.ConversationStore
	provider llm.Provider
	params   chat.Params
}

// New creates a server over the shared store and provider. params carries
// the mini model and generation defaults for the /chat endpoint.
func New(manager *chat.Manager, store storage.ConversationStore, provider llm.Provider, params chat.Params) *Server {
	return &Server{
		manager:  manager,
		store:    store,
		provider: provider,
		params:   params,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), CORS(), RequestID())

	router.POST("/conversations/", s.handleCreateConversation)
	router.GET("/conversations/", s.handleListConversations)
	router.POST("/conversations/:id/messages", s.handleAppendMessage)
	router.PUT("/conversations/:id/title", s.handleRenameConversation)
	router.POST("/chat", s.handleChat)

	return router
}
