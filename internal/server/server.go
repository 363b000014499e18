package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marketbay/marketd/internal/infrastructure/websocket"
	"github.com/marketbay/marketd/internal/settlement"
)

var log = logrus.WithField("component", "http")

// accountHeader carries the caller identity. Identity validation and
// formatting are the host platform's concern, not the marketplace's.
const accountHeader = "X-Market-Account"

type Server struct {
	svc *settlement.Service
	hub *websocket.Hub
}

// New wires the HTTP surface over the settlement service. hub may be
// nil to run without the event feed.
func New(svc *settlement.Service, hub *websocket.Hub) *Server {
	return &Server{svc: svc, hub: hub}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	listings := api.Group("/listings")
	listings.GET("", s.handleListingsIndex)
	listings.POST("", s.handleListingCreate)
	listing := listings.Group("/:serviceID/:assetID")
	listing.GET("", s.handleListingGet)
	listing.DELETE("", s.handleListingCancel)
	listing.POST("/purchase", s.handlePurchase)

	if s.hub != nil {
		r.GET("/ws/events", func(c *gin.Context) {
			s.hub.Handle(c.Writer, c.Request)
		})
	}

	return r
}
