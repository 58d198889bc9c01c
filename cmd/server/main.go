package main

import (
	"log"
	"net/http"
	"os"

	"github.com/imah-safety/epi-api/internal/adjustment"
	"github.com/imah-safety/epi-api/internal/catalog"
	"github.com/imah-safety/epi-api/internal/config"
	"github.com/imah-safety/epi-api/internal/fulfillment"
	"github.com/imah-safety/epi-api/internal/handler"
	"github.com/imah-safety/epi-api/internal/issuance"
	"github.com/imah-safety/epi-api/internal/receipt"
	"github.com/imah-safety/epi-api/internal/router"
	"github.com/imah-safety/epi-api/internal/ws"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Configuration errors are fatal: do not load data or serve.
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Data-load errors are not fatal; they are reported inline with the
	// affected list.
	items, itemsErr := catalog.LoadItems(cfg.CatalogPath)
	if itemsErr != nil {
		log.Printf("WARN: catalog load: %v", itemsErr)
	}
	itemStore := catalog.NewItemStore(items, itemsErr)

	employees, employeesErr := catalog.LoadEmployees(cfg.EmployeesPath)
	if employeesErr != nil {
		log.Printf("WARN: employee load: %v", employeesErr)
	}
	employeeStore := catalog.NewEmployeeStore(employees, employeesErr)

	log.Printf("Loaded %d catalog item(s), %d employee(s)", len(items), len(employees))

	hub := ws.NewHub()
	go hub.Run()

	client := adjustment.NewClient(cfg.StockAdjustment.URL, cfg.API.AppKey, cfg.API.AppSecret)
	assembler := &receipt.Assembler{
		TemplatePath: cfg.TemplatePath,
		Renderer:     receipt.HTMLRenderer{},
	}
	committer := fulfillment.NewCommitter(client, assembler, cfg.API.AdjustStock)
	writer := &receipt.Writer{Dir: cfg.ReceiptDir}

	sessions := issuance.NewManager()
	catalogHandler := handler.NewCatalogHandler(itemStore, employeeStore)
	sessionHandler := handler.NewSessionHandler(sessions, employeeStore, itemStore, committer, writer, hub)

	r := router.New(catalogHandler, sessionHandler, hub)

	log.Printf("Starting server on %s (stock adjustment enabled: %v)", cfg.Listen, cfg.API.AdjustStock)
	if err := http.ListenAndServe(cfg.Listen, r); err != nil {
		log.Fatal(err)
	}
}
