package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/marketbay/marketd/internal/domain"
)

func caller(c *gin.Context) (string, bool) {
	account := c.GetHeader(accountHeader)
	if account == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + accountHeader + " header"})
		return "", false
	}
	return account, true
}

func pathKey(c *gin.Context) domain.ListingKey {
	return domain.NewListingKey(c.Param("serviceID"), c.Param("assetID"))
}

// writeError maps the domain taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateListing), errors.Is(err, domain.ErrPurchaseInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientDeposit), errors.Is(err, domain.ErrWrongAmount), errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayFailure):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type createListingRequest struct {
	ServiceID  string `json:"service_id" binding:"required"`
	AssetID    string `json:"asset_id" binding:"required"`
	Price      string `json:"price" binding:"required"`
	OnBehalfOf string `json:"on_behalf_of"`
	// Deposit models the amount attached to the call; it is escrowed on
	// success and must meet the configured minimum.
	Deposit string `json:"deposit" binding:"required"`
}

func (s *Server) handleListingCreate(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative amount"})
		return
	}
	deposit, err := decimal.NewFromString(req.Deposit)
	if err != nil || deposit.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deposit must be a non-negative amount"})
		return
	}

	key := domain.NewListingKey(req.ServiceID, req.AssetID)
	if err := s.svc.AddSale(c.Request.Context(), key, account, price, req.OnBehalfOf, deposit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (s *Server) handleListingsIndex(c *gin.Context) {
	listings, err := s.svc.Listings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (s *Server) handleListingGet(c *gin.Context) {
	sale, err := s.svc.GetSale(c.Request.Context(), pathKey(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (s *Server) handleListingCancel(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	if err := s.svc.Cancel(c.Request.Context(), pathKey(c), account); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type purchaseRequest struct {
	// Payment models the amount attached to the call; it must equal the
	// sale price exactly.
	Payment string `json:"payment" binding:"required"`
}

func (s *Server) handlePurchase(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := decimal.NewFromString(req.Payment)
	if err != nil || payment.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment must be a non-negative amount"})
		return
	}

	pending, err := s.svc.Purchase(c.Request.Context(), pathKey(c), account, payment)
	if err != nil {
		writeError(c, err)
		return
	}
	// Settlement is asynchronous; the ticket is the handle to the
	// eventual outcome (observable on the event feed).
	c.JSON(http.StatusAccepted, gin.H{
		"ticket_id": pending.ID,
		"key":       pending.Key,
		"buyer":     pending.Buyer,
		"status":    "pending",
	})
}
