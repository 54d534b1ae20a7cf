package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richinex/penelope/llm"
	"github.com/richinex/penelope/storage"
)

// statusFor maps store failures to HTTP status codes: missing conversations
// are 404, everything else is a server error.
func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// handleCreateConversation creates a conversation with the default title.
// POST /conversations/?email=<str>
func (s *Server) handleCreateConversation(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	id, err := s.store.CreateConversation(c.Request.Context(), email, storage.DefaultTitle)
	if err != nil {
		log.Printf("Error creating conversation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": id})
}

// handleListConversations returns the user's conversation summaries.
// GET /conversations/?email=<str>
func (s *Server) handleListConversations(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	summaries, err := s.manager.ListConversations(c.Request.Context(), email)
	if err != nil {
		log.Printf("Error listing conversations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// handleAppendMessage appends one message verbatim. The role is stored as
// given; this boundary does not validate it.
// POST /conversations/:id/messages
func (s *Server) handleAppendMessage(c *gin.Context) {
	var request struct {
		Role    string `json:"role" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and content are required"})
		return
	}

	err := s.store.AppendMessage(c.Request.Context(), c.Param("id"), storage.Message{
		Role:    request.Role,
		Content: request.Content,
	})
	if err != nil {
		log.Printf("Error appending message: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to append message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// handleRenameConversation overwrites the conversation title.
// PUT /conversations/:id/title
func (s *Server) handleRenameConversation(c *gin.Context) {
	var request struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	if err := s.store.RenameConversation(c.Request.Context(), c.Param("id"), request.Title); err != nil {
		log.Printf("Error renaming conversation: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to rename conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// handleChat runs one turn against the mini model: load history, complete
// with the new user message appended, then write user and assistant turns
// as a single batched update.
// POST /chat?email=<str>&conversation_id=<str>&message=<str>
func (s *Server) handleChat(c *gin.Context) {
	email := c.Query("email")
	conversationID := c.Query("conversation_id")
	message := c.Query("message")
	if email == "" || conversationID == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, conversation_id and message are required"})
		return
	}

	ctx := c.Request.Context()
	history, err := s.store.Messages(ctx, conversationID)
	if err != nil {
		log.Printf("Error loading conversation: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to load conversation"})
		return
	}

	transcript := append(storage.Transcript(history), llm.UserMessage(message))
	reply, err := s.provider.Complete(ctx, transcript, llm.Request{
		Model:       s.params.Model,
		MaxTokens:   s.params.MaxTokens,
		Temperature: s.params.Temperature,
	})
	if err != nil {
		log.Printf("Error calling completion provider: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = s.store.AppendMessages(ctx, conversationID, []storage.Message{
		{Role: llm.RoleUser, Content: message},
		{Role: llm.RoleAssistant, Content: reply},
	})
	if err != nil {
		log.Printf("Error saving chat turn: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to save chat turn"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}
