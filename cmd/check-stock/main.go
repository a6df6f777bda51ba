package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/catalog"
	"github.com/sahelshop/storefront/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/check-stock/main.go <product-id> [<product-id> ...]")
		fmt.Println("Example: go run cmd/check-stock/main.go 7 12 42")
		os.Exit(1)
	}

	ids := make([]int, 0, len(os.Args)-1)
	for _, arg := range os.Args[1:] {
		id, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid product id %q\n", arg)
			os.Exit(1)
		}
		ids = append(ids, id)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := catalog.NewClient(cfg.Catalog, logger)

	products, err := client.ListProductsByIDs(context.Background(), ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch products: %v\n", err)
		os.Exit(1)
	}

	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			fmt.Printf("product %d: not found in catalog\n", id)
			continue
		}
		if !product.TrackStock {
			fmt.Printf("product %d (%s): stock not tracked, sellable=%t\n", id, product.Name, product.Sellable)
			continue
		}
		fmt.Printf("product %d (%s): stock=%d sellable=%t\n", id, product.Name, product.StockQuantity, product.Sellable)
	}
}
