package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

// DefaultMaxUpload bounds container uploads.
const DefaultMaxUpload = 256 << 20

type Options struct {
	Service transcode.Service
	// Capabilities is used when a request has no caps query parameter.
	Capabilities transcode.Capabilities
	Workers      int
	MaxUpload    int64
	Logger       logger.Logger
}

type Server struct {
	store *TextureStore
	opts  Options
	log   logger.Logger
	clock func() time.Time
}

func NewServer(store *TextureStore, opts Options) *Server {
	if store == nil {
		store = NewTextureStore()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		store: store,
		opts:  opts,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/textures/inspect", s.handleInspect)
	e.POST("/v1/textures/negotiate", s.handleNegotiate)
	e.POST("/v1/textures", s.handleCreateTexture)
	e.GET("/v1/textures/:id", s.handleGetTexture)
	e.GET("/v1/textures/:id/levels/:level", s.handleGetLevel)
	e.DELETE("/v1/textures/:id", s.handleDeleteTexture)
}

func (s *Server) capabilities(c *echo.Context) (transcode.Capabilities, error) {
	q := c.QueryParam("caps")
	if q == "" {
		return s.opts.Capabilities, nil
	}
	caps, err := transcode.ParseCapabilities(q)
	if err != nil {
		return transcode.Capabilities{}, newInvalidRequest(err.Error())
	}
	return caps, nil
}

func (s *Server) parseUpload(c *echo.Context) ([]byte, *ktx2.Container, error) {
	data, err := readBody(c, s.opts.MaxUpload)
	if err != nil {
		return nil, nil, err
	}
	container, err := ktx2.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return data, container, nil
}

func (s *Server) handleInspect(c *echo.Context) error {
	_, container, err := s.parseUpload(c)
	if err != nil {
		return writeDecodeError(c, err)
	}
	return c.JSON(http.StatusOK, Describe(container))
}

func (s *Server) handleNegotiate(c *echo.Context) error {
	caps, err := s.capabilities(c)
	if err != nil {
		return writeDecodeError(c, err)
	}
	_, container, err := s.parseUpload(c)
	if err != nil {
		return writeDecodeError(c, err)
	}
	target, err := transcode.Negotiate(caps, container.HasAlpha())
	if err != nil {
		return writeDecodeError(c, err)
	}
	supported := s.opts.Service != nil && s.opts.Service.Supports(target, container.Model())
	return c.JSON(http.StatusOK, negotiateResponse(container, caps, target, supported))
}

func (s *Server) handleCreateTexture(c *echo.Context) error {
	if s.opts.Service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "transcode service not configured")
	}
	caps, err := s.capabilities(c)
	if err != nil {
		return writeDecodeError(c, err)
	}
	data, err := readBody(c, s.opts.MaxUpload)
	if err != nil {
		return writeDecodeError(c, err)
	}

	digest := Digest(data)
	if rec, ok := s.store.Lookup(digest, caps); ok {
		return c.JSON(http.StatusOK, textureResponse(rec))
	}

	container, err := ktx2.Parse(data)
	if err != nil {
		return writeDecodeError(c, err)
	}
	dec := &transcode.Decoder{
		Service:      s.opts.Service,
		Capabilities: caps,
		Workers:      s.opts.Workers,
		Logger:       s.log.With("digest", digest),
	}
	tex, err := dec.Decode(c.Request().Context(), container)
	if err != nil {
		s.log.Warn("texture decode failed", "digest", digest, "error", err)
		return writeDecodeError(c, err)
	}
	rec := s.store.Save(digest, caps, tex, s.clock())
	s.log.Info("texture stored", "id", rec.ID, "format", tex.Format.String(), "levels", len(tex.Levels))
	return c.JSON(http.StatusCreated, textureResponse(rec))
}

func (s *Server) handleGetTexture(c *echo.Context) error {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "texture not found")
	}
	return c.JSON(http.StatusOK, textureResponse(rec))
}

func (s *Server) handleGetLevel(c *echo.Context) error {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "texture not found")
	}
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 0 {
		return writeBadRequest(c, "level must be a non-negative integer")
	}
	if level >= len(rec.Texture.Levels) {
		return writeNotFound(c, "level not found")
	}
	l := rec.Texture.Levels[level]
	h := c.Response().Header()
	h.Set("X-Texture-Format", rec.Texture.Format.String())
	h.Set("X-Texture-Width", strconv.Itoa(l.Width))
	h.Set("X-Texture-Height", strconv.Itoa(l.Height))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, l.Data)
}

func (s *Server) handleDeleteTexture(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "texture not found")
	}
	return c.JSON(http.StatusOK, DeleteTextureResp{
		ID:      id,
		Object:  "texture.deleted",
		Deleted: true,
	})
}
