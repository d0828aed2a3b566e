package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estatepay/estatepay-backend/api/controllers"
	"github.com/estatepay/estatepay-backend/api/middleware"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/internal/projections/voucher"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// Services groups the command services the router exposes.
type Services struct {
	Estates         *commands.EstateService
	Merchants       *commands.MerchantService
	Contracts       *commands.ContractService
	Floats          *commands.FloatService
	Transactions    *commands.TransactionService
	Settlements     *commands.SettlementService
	Reconciliations *commands.ReconciliationService
	Vouchers        *commands.VoucherService
}

// ReadModels groups the query-side repositories.
type ReadModels struct {
	Views    *readmodel.Repository
	Balances merchantbalance.Repository
	Vouchers voucher.Repository
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	healthDeps map[string]controllers.Pinger,
	svcs Services,
	reads ReadModels,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	// Terminal-facing operations. Every response carries a response
	// code the terminal branches on.
	r.Route("/api/v1/terminal", func(r chi.Router) {
		r.Post("/logon", controllers.TerminalLogon(svcs.Transactions, logg))
		r.Post("/sale", controllers.TerminalSale(svcs.Transactions, logg))
		r.Post("/reconcile", controllers.TerminalReconcile(svcs.Reconciliations, logg))
	})

	// Back-office administration.
	r.Route("/api/v1/estates", func(r chi.Router) {
		r.Get("/", controllers.ListEstates(reads.Views, logg))
		r.Post("/", controllers.CreateEstate(svcs.Estates, logg))
		r.Post("/{estateId}/operators", controllers.AddOperatorToEstate(svcs.Estates, logg))
		r.Get("/{estateId}/merchants", controllers.ListMerchants(reads.Views, logg))
		r.Get("/{estateId}/contracts", controllers.ListContracts(reads.Views, logg))
		r.Get("/{estateId}/merchants/{merchantId}/transactions", controllers.ListTransactions(reads.Views, logg))
		r.Get("/{estateId}/merchants/{merchantId}/settlements", controllers.ListSettlements(reads.Views, logg))
		r.Get("/{estateId}/merchants/{merchantId}/balance", controllers.MerchantBalance(reads.Balances, logg))
	})

	r.Route("/api/v1/operators", func(r chi.Router) {
		r.Post("/", controllers.CreateOperator(svcs.Estates, logg))
	})

	r.Route("/api/v1/merchants", func(r chi.Router) {
		r.Post("/", controllers.CreateMerchant(svcs.Merchants, logg))
		r.Post("/{merchantId}/operators", controllers.AssignOperatorToMerchant(svcs.Merchants, logg))
		r.Post("/{merchantId}/devices", controllers.AddMerchantDevice(svcs.Merchants, logg))
		r.Get("/{merchantId}/devices", controllers.ListMerchantDevices(reads.Views, logg))
		r.Post("/{merchantId}/deposits", controllers.MakeManualDeposit(svcs.Merchants, logg))
		r.Post("/{merchantId}/withdrawals", controllers.MakeWithdrawal(svcs.Merchants, logg))
		r.Post("/{merchantId}/floats", controllers.CreateFloat(svcs.Floats, logg))
		r.Post("/{merchantId}/floats/credit", controllers.PurchaseFloatCredit(svcs.Floats, logg))
		r.Get("/{merchantId}/floats/{operatorId}", controllers.GetFloat(reads.Views, logg))
	})

	r.Route("/api/v1/contracts", func(r chi.Router) {
		r.Post("/", controllers.CreateContract(svcs.Contracts, logg))
		r.Get("/{contractId}", controllers.GetContract(reads.Views, logg))
		r.Post("/{contractId}/products", controllers.AddContractProduct(svcs.Contracts, logg))
		r.Post("/{contractId}/products/{productId}/fees", controllers.AddContractProductFee(svcs.Contracts, logg))
	})

	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.Get("/{transactionId}", controllers.GetTransaction(reads.Views, logg))
	})

	r.Route("/api/v1/settlements", func(r chi.Router) {
		r.Post("/process", controllers.ProcessSettlement(svcs.Settlements, logg))
		r.Get("/pending", controllers.GetPendingSettlement(svcs.Settlements, logg))
		r.Get("/{settlementId}", controllers.GetSettlement(reads.Views, logg))
	})

	r.Route("/api/v1/vouchers", func(r chi.Router) {
		r.Post("/", controllers.GenerateVoucher(svcs.Vouchers, logg))
		r.Get("/lookup", controllers.LookupVoucher(reads.Vouchers, logg))
		r.Post("/{voucherId}/issue", controllers.IssueVoucher(svcs.Vouchers, logg))
		r.Post("/{voucherId}/redeem", controllers.RedeemVoucher(svcs.Vouchers, logg))
	})

	return r
}
