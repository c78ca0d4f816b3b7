package main

import (
	"fmt"
	"os"

	_ "freightops/api/swagger" // swagger docs
)

// @title           Freight Operations API
// @version         1.0
// @description     Back-office API for shipment registration, deliveries, labour collection, trips and ledgers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
