package controllers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the order and customer endpoints on api.
func RegisterRoutes(api *gin.RouterGroup, oc *OrderController, cc *CustomerController) {
	api.POST("/orders", oc.CreateOrder)
	api.GET("/orders", oc.ListOrders)
	api.GET("/orders/:id", oc.GetOrder)
	api.POST("/orders/:id/cancel", oc.CancelOrder)
	api.POST("/orders/:id/close", oc.CloseOrder)
	api.POST("/orders/:id/open", oc.ReopenOrder)
	api.POST("/orders/:id/fulfillments", oc.FulfillOrder)
	api.POST("/orders/:id/transactions", oc.CreateTransaction)
	api.GET("/orders/:id/transactions", oc.ListTransactions)
	api.PUT("/orders/:id/transactions", oc.ModifyPayment)

	api.GET("/customers/search", cc.Search)
	api.GET("/customers/:id", cc.GetCustomer)
	api.GET("/customers/:id/orders", cc.CustomerOrders)
}
