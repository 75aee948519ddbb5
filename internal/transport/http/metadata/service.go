// Package metadata exposes the generation facade and the prompt rule store
// over HTTP.
package metadata

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"imagemeta-server-go/internal/domain/image"
	domain "imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/domain/metadata/store"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/logging"
	transport "imagemeta-server-go/internal/transport/http"
)

// primaryStatus is what the status endpoint needs to know about the primary
// provider.
type primaryStatus interface {
	Name() string
	Configured() bool
}

type Options struct {
	Config    *config.Config
	Logger    *logging.Logger
	Generator *domain.Service
	Validator *image.Validator
	Store     store.Store
	Primary   primaryStatus
}

type Service struct {
	conf      *config.Config
	logger    *logging.Logger
	generator *domain.Service
	validator *image.Validator
	store     store.Store
	primary   primaryStatus
}

func NewService(opts Options) *Service {
	return &Service{
		conf:      opts.Config,
		logger:    opts.Logger,
		generator: opts.Generator,
		validator: opts.Validator,
		store:     opts.Store,
		primary:   opts.Primary,
	}
}

// Register attaches the metadata and prompt routes to the API group.
func (s *Service) Register(group *gin.RouterGroup) {
	if token := s.conf.Server.Token; token != "" {
		group.Use(s.authMiddleware(token))
	}

	group.GET("/metadata", s.handleStatus)
	group.POST("/metadata/generate", s.handleGenerate)
	group.POST("/metadata/combined", s.handleCombined)
	group.POST("/metadata/test", s.handleTest)

	group.GET("/prompts", s.handleListPrompts)
	group.PUT("/prompts/:property", s.handlePutPrompt)
	group.DELETE("/prompts/:property", s.handleDeletePrompt)

	s.logger.InfoTag("HTTP", "metadata routes registered")
}

func (s *Service) authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "Bearer "+token {
			transport.RespondError(c, http.StatusUnauthorized, "invalid or missing token")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Service) handleStatus(c *gin.Context) {
	transport.RespondSuccess(c, StatusResponse{
		Provider:        s.primary.Name(),
		Configured:      s.primary.Configured(),
		FallbackEnabled: s.conf.Fallback.Enabled,
		StoreDriver:     s.conf.Store.Driver,
	})
}

func (s *Service) handleGenerate(c *gin.Context) {
	req, ref, ok := s.bindRequest(c)
	if !ok {
		return
	}

	var record domain.Record
	if req.Property != "" || req.Prompt != "" {
		record = s.generator.GenerateForCustomProperty(c.Request.Context(), ref, req.Property, req.Prompt)
	} else {
		record = s.generator.GenerateSingle(c.Request.Context(), ref)
	}
	transport.RespondSuccess(c, record)
}

func (s *Service) handleCombined(c *gin.Context) {
	_, ref, ok := s.bindRequest(c)
	if !ok {
		return
	}
	transport.RespondSuccess(c, s.generator.GenerateCombined(c.Request.Context(), ref))
}

func (s *Service) handleTest(c *gin.Context) {
	report := s.generator.TestConfiguration(c.Request.Context())
	if report == nil {
		transport.RespondError(c, http.StatusInternalServerError, "configuration test failed")
		return
	}
	transport.RespondSuccess(c, report)
}

// bindRequest parses the body and turns it into a validated image reference.
// Inline data is probed before any provider call; URLs pass through for the
// provider to fetch.
func (s *Service) bindRequest(c *gin.Context) (GenerateRequest, image.Ref, bool) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transport.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, image.Ref{}, false
	}

	switch {
	case req.ImageData != "":
		format := req.Format
		if format == "" {
			format = image.FormatFromFilename(req.Filename)
		}
		if _, err := s.validator.ProbeBase64(req.ImageData, format, req.Filename); err != nil {
			transport.RespondError(c, http.StatusBadRequest, err.Error())
			return req, image.Ref{}, false
		}
		return req, image.Ref{Data: req.ImageData, Format: format}, true
	case req.ImageURL != "":
		return req, image.Ref{URL: req.ImageURL}, true
	default:
		transport.RespondError(c, http.StatusBadRequest, "either image_url or image_data is required")
		return req, image.Ref{}, false
	}
}

func (s *Service) handleListPrompts(c *gin.Context) {
	rules, err := s.store.List(c.Request.Context())
	if err != nil {
		transport.RespondError(c, http.StatusInternalServerError, "listing prompt rules failed")
		return
	}
	if rules == nil {
		rules = []domain.PromptRule{}
	}
	transport.RespondSuccess(c, rules)
}

func (s *Service) handlePutPrompt(c *gin.Context) {
	property := strings.TrimSpace(c.Param("property"))
	if property == "" {
		transport.RespondError(c, http.StatusBadRequest, "property is required")
		return
	}

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transport.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rule := domain.PromptRule{Property: property, Prompt: req.Prompt}
	if err := s.store.Put(c.Request.Context(), rule); err != nil {
		transport.RespondError(c, http.StatusInternalServerError, "saving prompt rule failed")
		return
	}
	transport.RespondSuccess(c, rule)
}

func (s *Service) handleDeletePrompt(c *gin.Context) {
	property := strings.TrimSpace(c.Param("property"))
	if err := s.store.Remove(c.Request.Context(), property); err != nil {
		transport.RespondError(c, http.StatusInternalServerError, "deleting prompt rule failed")
		return
	}
	transport.RespondSuccess(c, gin.H{"property": property, "deleted": true})
}
