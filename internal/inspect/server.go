package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/biffrec/internal/auth"
	"github.com/danmuck/biffrec/internal/config"
	"github.com/danmuck/biffrec/internal/observability"
	"github.com/danmuck/biffrec/internal/record"
)

const version = "0.1.0"

// Server decodes posted record streams and reports on them.
type Server struct {
	ID       string
	Addr     string
	Config   config.CodecConfig
	Registry *record.Registry
	Started  time.Time

	router  *gin.Engine
	metrics *observability.CodecMetrics
	log     zerolog.Logger
}

func New(id string, cfg config.CodecConfig) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.Inspect.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	reg := cfg.Registry()
	return &Server{
		ID:       id,
		Addr:     cfg.Inspect.Addr,
		Config:   cfg,
		Registry: reg,
		Started:  time.Now(),
		router:   r,
		metrics:  observability.NewCodecMetrics(cfg.RecordFormat(), reg),
		log:      log.Logger.With().Str("server", id).Logger(),
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": version,
			"kinds":   len(s.Registry.Tags()),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guarded := s.router.Group("/")
	if token := s.Config.Inspect.Token; token != "" {
		guarded.Use(auth.Middleware(auth.StaticToken{Token: token}))
	}

	guarded.POST("/decode", func(c *gin.Context) {
		payload, ok := s.readBody(c)
		if !ok {
			return
		}
		summary, err := s.Decode(payload)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	guarded.POST("/verify", func(c *gin.Context) {
		payload, ok := s.readBody(c)
		if !ok {
			return
		}
		res, err := s.Verify(payload)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	s.log.Info().Str("addr", s.Addr).Int("kinds", len(s.Registry.Tags())).Msg("inspect server listening")
	return s.router.Run(s.Addr)
}

func (s *Server) decoderOptions() record.DecoderOptions {
	return record.DecoderOptions{
		Format:   s.Config.RecordFormat(),
		Registry: s.Registry,
		Logger:   &s.log,
		Observer: s.metrics,
	}
}

// Decode summarizes a complete record stream.
func (s *Server) Decode(payload []byte) (Summary, error) {
	recs, err := record.DecodeBytes(payload, s.decoderOptions())
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs, s.Registry, s.Config.RecordFormat()), nil
}

type VerifyResult struct {
	Identical   bool `json:"identical"`
	InputBytes  int  `json:"input_bytes"`
	OutputBytes int  `json:"output_bytes"`
	Records     int  `json:"records"`
	// FirstDiff is the first differing byte offset, or -1.
	FirstDiff   int  `json:"first_diff"`
}

// Verify decodes payload, re-encodes the records and compares the bytes.
func (s *Server) Verify(payload []byte) (VerifyResult, error) {
	return Verify(payload, s.decoderOptions())
}

// Verify is the round-trip check shared with the CLI.
func Verify(payload []byte, opts record.DecoderOptions) (VerifyResult, error) {
	recs, err := record.DecodeBytes(payload, opts)
	if err != nil {
		return VerifyResult{}, err
	}
	var out bytes.Buffer
	enc, err := record.NewEncoder(&out, opts.Format)
	if err != nil {
		return VerifyResult{}, err
	}
	enc.SetRegistry(opts.Registry)
	if opts.Observer != nil {
		enc.SetObserver(opts.Observer)
	}
	for _, rec := range recs {
		if err := enc.Encode(rec.Body); err != nil {
			return VerifyResult{}, fmt.Errorf("re-encode 0x%04X at %d: %w", rec.Tag(), rec.Offset, err)
		}
	}
	return VerifyResult{
		Identical:   bytes.Equal(out.Bytes(), payload),
		InputBytes:  len(payload),
		OutputBytes: out.Len(),
		Records:     len(recs),
		FirstDiff:   firstDiff(payload, out.Bytes()),
	}, nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.Config.Inspect.MaxBodyBytes)
	payload, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit),
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return payload, true
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	var fe *record.FormatError
	if errors.As(err, &fe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"reason": observability.FormatReason(fe),
			"op":     fe.Op,
			"tag":    fe.Tag,
			"offset": fe.Offset,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
