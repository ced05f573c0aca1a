package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/egaotan/honorary-quote-fee/env"
	"github.com/egaotan/honorary-quote-fee/keeper"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gin-gonic/gin"
)

type Runner interface {
	RunDay(ctx context.Context) (*keeper.DayResult, error)
}

// Server exposes policy and progress state and a manual crank trigger.
type Server struct {
	ctx        context.Context
	log        *slog.Logger
	env        *env.Env
	keeper     Runner
	addr       string
	httpServer *http.Server
}

func NewServer(ctx context.Context, e *env.Env, k Runner, addr string, log *slog.Logger) *Server {
	return &Server{
		ctx:    ctx,
		log:    log,
		env:    e,
		keeper: k,
		addr:   addr,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	g := router.Group("/api")
	g.GET("/policy", s.policy)
	g.GET("/progress", s.progress)
	g.POST("/crank", s.crank)
	return router
}

func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}
	s.log.Info("start http server", "addr", s.addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("listen and serve", "error", err)
		}
	}()
}

func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("shutdown http server", "error", err)
		return
	}
	s.log.Info("http server stopped")
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func errorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{Error: err.Error()}
	var code program.ErrorCode
	if errors.As(err, &code) {
		resp.Code = code.Name()
	}
	return resp
}

func (s *Server) policy(c *gin.Context) {
	policy, err := s.env.Policy()
	if errors.Is(err, env.ErrPolicyNotFound) {
		c.JSON(http.StatusNotFound, errorResponse(err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	decimals, err := s.env.MintDecimals(policy.QuoteMint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, buildPolicy(s.env.PolicyKey(), policy, decimals))
}

func (s *Server) progress(c *gin.Context) {
	policy, err := s.env.Policy()
	if errors.Is(err, env.ErrPolicyNotFound) {
		c.JSON(http.StatusNotFound, errorResponse(err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	progress, err := s.env.Progress()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	decimals, err := s.env.MintDecimals(policy.QuoteMint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	treasury, err := s.env.Balance(policy.QuoteTreasury)
	if err != nil && policy.Ready() {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, buildProgress(progress, policy, treasury, decimals))
}

func (s *Server) crank(c *gin.Context) {
	result, err := s.keeper.RunDay(c.Request.Context())
	if err != nil {
		s.log.Error("manual crank", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, result)
}
