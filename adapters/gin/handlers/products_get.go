package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/gate"
)

func HandleProductsGET(f *gate.Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := f.GetAllProducts(c.Request.Context())
		if err != nil {
			ginutil.ServerErr(c, "failed_to_load_catalog")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}
