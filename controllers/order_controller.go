package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"commerce-sim/logger"
	"commerce-sim/middlewares"
	"commerce-sim/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type cancelRequest struct {
	Reason   string `json:"reason" binding:"omitempty,oneof=customer inventory fraud other"`
	Amount   string `json:"amount" binding:"omitempty,numeric"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Restock  bool   `json:"restock"`
}

type fulfillmentRequest struct {
	LineItemIDs []string `json:"line_item_ids" binding:"omitempty,dive,required"`
}

// recordOperation counts the request under operation once the handler has
// written its status.
func recordOperation(c *gin.Context, operation string) {
	status := c.Writer.Status()
	middlewares.RecordOrderOperation(operation, status >= 200 && status < 300)
}

func (oc *OrderController) CreateOrder(c *gin.Context) {
	defer recordOperation(c, "create")

	var in services.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := oc.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	defer recordOperation(c, "list")

	orders, err := oc.orders.ListOrders(c.Request.Context(), services.OrderFilter{
		CustomerID:        c.Query("customer_id"),
		Status:            c.Query("status"),
		FinancialStatus:   c.Query("financial_status"),
		FulfillmentStatus: c.Query("fulfillment_status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	defer recordOperation(c, "details")

	order, err := oc.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	defer recordOperation(c, "cancel")

	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	order, err := oc.orders.CancelOrder(c.Request.Context(), c.Param("id"), services.CancelInput{
		Reason:   req.Reason,
		Amount:   req.Amount,
		Currency: req.Currency,
		Restock:  req.Restock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) CloseOrder(c *gin.Context) {
	defer recordOperation(c, "close")

	order, err := oc.orders.CloseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) ReopenOrder(c *gin.Context) {
	defer recordOperation(c, "open")

	order, err := oc.orders.ReopenOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) FulfillOrder(c *gin.Context) {
	defer recordOperation(c, "fulfill")

	var req fulfillmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	order, err := oc.orders.FulfillLineItems(c.Request.Context(), c.Param("id"), req.LineItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CreateTransaction records a transaction. A simulated decline answers 402
// and still returns the stored failed transaction.
func (oc *OrderController) CreateTransaction(c *gin.Context) {
	defer recordOperation(c, "transaction")

	var in services.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := oc.orders.CreateTransaction(c.Request.Context(), c.Param("id"), in)
	if errors.Is(err, services.ErrPaymentFailed) && tx != nil {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "transaction": tx})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

func (oc *OrderController) ModifyPayment(c *gin.Context) {
	defer recordOperation(c, "modify_payment")

	var in services.ModifyPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := oc.orders.ModifyPendingOrderPayment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) ListTransactions(c *gin.Context) {
	defer recordOperation(c, "list_transactions")

	txs, err := oc.orders.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// HandleDeadLetter accepts dead letters forwarded by operators or broker
// policies and logs them.
func HandleDeadLetter(c *gin.Context) {
	defer recordOperation(c, "dead_letter")

	var deadLetter struct {
		OrderID string `json:"order_id" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&deadLetter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.FromContext(c.Request.Context()).Warn().
		Str("order_id", deadLetter.OrderID).
		Str("reason", deadLetter.Reason).
		Msg("Handling dead letter")
	c.JSON(http.StatusOK, gin.H{"message": "Dead letter processed"})
}
