package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/server/handlers"
	"github.com/mamadbah2/henmanager/internal/server/middleware"
)

// Handlers groups the resource handlers mounted under /api.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Sales   *handlers.SaleHandler
	Credits *handlers.CreditHandler
	Farm    *handlers.FarmHandler
	Reports *handlers.ReportHandler
}

// Options configure the engine.
type Options struct {
	Validator   middleware.TokenValidator
	CORSOrigins []string
	Logger      *zap.Logger
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(middleware.ErrorHandler(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.Auth(opts.Validator))
	secured.GET("/auth/me", h.Auth.Me)

	registerSales(secured, h.Sales)
	registerCredits(secured.Group("/credits"), h.Credits)
	registerSaleAliases(secured.Group("/sales"), h.Credits)
	registerFarm(secured, h.Farm)
	registerAccounts(secured, h.Auth)
	registerReports(secured.Group("/reports"), h.Reports)

	logger.Info("router initialized")
	return r
}

func guard(permission string) gin.HandlerFunc {
	return middleware.RequirePermission(permission)
}

func registerSales(api *gin.RouterGroup, h *handlers.SaleHandler) {
	api.GET("/stock", guard(access.ViewSales), h.Stock)

	sales := api.Group("/sales")
	sales.GET("", guard(access.ViewSales), h.List)
	sales.POST("", guard(access.CreateSale), h.Create)
	sales.GET("/credits", guard(access.ViewCredits), h.Credits)
	sales.GET("/:id", guard(access.ViewSales), h.Get)
	sales.POST("/:id/payments", guard(access.RegisterPayment), h.AddPayment)
}

func registerCredits(credits *gin.RouterGroup, h *handlers.CreditHandler) {
	credits.GET("", guard(access.ViewCredits), h.List)
	credits.GET("/summary", guard(access.ViewCredits), h.Summary)
	credits.GET("/customers", guard(access.ViewCredits), h.Customers)
	credits.GET("/customers/:id", guard(access.ViewCredits), h.Customer)
	credits.PUT("/:id/pay", guard(access.RegisterPayment), h.Pay)
	credits.PUT("/:id/cancel", guard(access.CancelCredit), h.Cancel)
	credits.GET("/:id/payments", guard(access.ViewCredits), h.Payments)
}

// registerSaleAliases mounts the ledger routes also reachable under /sales.
func registerSaleAliases(sales *gin.RouterGroup, h *handlers.CreditHandler) {
	sales.GET("/:id/payments", guard(access.ViewCredits), h.Payments)
	sales.PUT("/:id/cancel", guard(access.CancelCredit), h.Cancel)
}

func registerFarm(api *gin.RouterGroup, h *handlers.FarmHandler) {
	batches := api.Group("/batches")
	batches.GET("", guard(access.ViewBatches), h.ListBatches)
	batches.POST("", guard(access.CreateBatch), h.CreateBatch)
	batches.GET("/:id", guard(access.ViewBatches), h.GetBatch)
	batches.PUT("/:id", guard(access.EditBatch), h.UpdateBatch)
	batches.PUT("/:id/close", guard(access.CloseBatch), h.CloseBatch)

	productions := api.Group("/egg-productions")
	productions.GET("", guard(access.ViewProduction), h.ListProductions)
	productions.POST("", guard(access.CreateProduction), h.CreateProduction)
	productions.POST("/RegisterDailyProduction", guard(access.CreateProduction), h.CreateProduction)
	productions.PUT("/:id", guard(access.EditProduction), h.UpdateProduction)
	productions.DELETE("/:id", guard(access.DeleteProduction), h.DeleteProduction)

	customers := api.Group("/customers")
	customers.GET("", guard(access.ViewCustomers), h.ListCustomers)
	customers.POST("", guard(access.CreateCustomer), h.CreateCustomer)
	customers.GET("/:id", guard(access.ViewCustomers), h.GetCustomer)
	customers.PUT("/:id", guard(access.EditCustomer), h.UpdateCustomer)
	customers.DELETE("/:id", guard(access.DeleteCustomer), h.DeleteCustomer)

	eggTypes := api.Group("/egg-types")
	eggTypes.GET("", guard(access.ViewEggTypes), h.ListEggTypes)
	eggTypes.POST("", guard(access.CreateEggType), h.CreateEggType)
	eggTypes.GET("/:id", guard(access.ViewEggTypes), h.GetEggType)
	eggTypes.PUT("/:id", guard(access.EditEggType), h.UpdateEggType)
	eggTypes.DELETE("/:id", guard(access.DeleteEggType), h.DeleteEggType)

	supplies := api.Group("/supplies")
	supplies.GET("", guard(access.ViewSupplies), h.ListSupplies)
	supplies.POST("", guard(access.CreateSupply), h.CreateSupply)
	supplies.PUT("/:id", guard(access.EditSupply), h.UpdateSupply)
	supplies.DELETE("/:id", guard(access.DeleteSupply), h.DeleteSupply)
}

func registerAccounts(api *gin.RouterGroup, h *handlers.AuthHandler) {
	users := api.Group("/users")
	users.GET("", guard(access.ViewUsers), h.ListUsers)
	users.POST("", guard(access.CreateUser), h.CreateUser)
	users.GET("/:id", guard(access.ViewUsers), h.GetUser)
	users.PUT("/:id", guard(access.EditUser), h.UpdateUser)
	users.DELETE("/:id", guard(access.DeleteUser), h.DeleteUser)

	roles := api.Group("/roles")
	roles.GET("", guard(access.ViewRoles), h.ListRoles)
	roles.POST("", guard(access.CreateRole), h.CreateRole)
	roles.GET("/permissions", guard(access.ViewRoles), h.ListPermissions)
	roles.GET("/:id", guard(access.ViewRoles), h.GetRole)
	roles.PUT("/:id", guard(access.EditRole), h.UpdateRole)
	roles.DELETE("/:id", guard(access.DeleteRole), h.DeleteRole)

	api.GET("/permissions", guard(access.ViewRoles), h.ListPermissions)
	api.POST("/permissions", guard(access.CreateRole), h.CreatePermission)
}

func registerReports(reports *gin.RouterGroup, h *handlers.ReportHandler) {
	reports.GET("/summary", guard(access.ViewReports), h.Summary)
	reports.GET("/monthly-profit", guard(access.ViewReports), h.MonthlyProfit)
	reports.GET("/daily", guard(access.ViewReports), h.Daily)
}
