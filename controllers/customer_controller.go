package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"commerce-sim/middlewares"
	"commerce-sim/services"
)

type CustomerController struct {
	customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

// fieldsParam splits the comma separated fields parameter. An absent or blank
// parameter selects every field.
func fieldsParam(c *gin.Context) []string {
	raw, ok := c.GetQuery("fields")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func (cc *CustomerController) Search(c *gin.Context) {
	params := services.SearchParams{
		Query:    c.Query("query"),
		PageInfo: c.Query("page_info"),
		Fields:   fieldsParam(c),
		Order:    c.Query("order"),
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			middlewares.RecordSearchQuery("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		params.Limit = limit
		if limit == 0 {
			params.Limit = -1
		}
	}

	result, err := cc.customers.Search(c.Request.Context(), params)
	if err != nil {
		middlewares.RecordSearchQuery("invalid")
		respondError(c, err)
		return
	}
	if len(result.Customers) == 0 {
		middlewares.RecordSearchQuery("empty")
	} else {
		middlewares.RecordSearchQuery("ok")
	}
	c.JSON(http.StatusOK, result)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	customer, err := cc.customers.GetCustomer(c.Request.Context(), c.Param("id"), fieldsParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func (cc *CustomerController) CustomerOrders(c *gin.Context) {
	orders, err := cc.customers.CustomerOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
